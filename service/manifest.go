package service

import (
	"fmt"
	"path"
	"strings"
)

// ManifestBuilder renders the master playlist for a job. Every entry
// URI is absolute: the manifest is relocated into the content store, so
// it must stay playable with no relative-path context at all.
type ManifestBuilder struct {
	publicBase string
}

func NewManifestBuilder(publicBase string) *ManifestBuilder {
	return &ManifestBuilder{publicBase: strings.TrimRight(publicBase, "/")}
}

// Build is deterministic: same job and variant results, byte-identical
// output. Entries appear in the order the results were produced, which
// the transcoder keeps in catalog order.
func (b *ManifestBuilder) Build(jobID string, results []VariantResult) string {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	sb.WriteString("#EXT-X-VERSION:3\n")
	for _, res := range results {
		v := res.Variant
		bandwidth := (v.Bitrate + v.AudioRate) * 1000
		sb.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s,NAME=%q\n", bandwidth, v.Resolution(), v.Name))
		sb.WriteString(b.VariantPlaylistURL(jobID, v.Name))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *ManifestBuilder) VariantPlaylistURL(jobID, variantName string) string {
	return b.publicBase + "/" + strings.TrimLeft(path.Join("jobs", jobID, variantName, "playlist"), "/")
}
