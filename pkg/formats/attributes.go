package formats

import (
	"strconv"
	"strings"
)

// Attribute name tags. A descriptor matches a tag when its name contains it.
const (
	AttrPosition    = "attr_pos"
	AttrNormal      = "attr_norm"
	AttrUV          = "attr_uv" // followed by the channel number
	AttrTangent     = "attr_textan"
	AttrBinormal    = "attr_binormal"
	AttrColor       = "attr_color"
	AttrJoints      = "attr_joints"
	AttrWeights     = "attr_weights"
	AttrMorphTarget = "attr_t" // followed by channel and pos, norm, tan or binorm
)

// primaryTangentName contains the morph target tag but names the primary
// tangent attribute. It is excluded from morph matching by exact name only.
const primaryTangentName = AttrTangent

// MorphKind is the attribute a morph target channel displaces.
type MorphKind int

const (
	MorphPosition MorphKind = iota
	MorphNormal
	MorphTangent
	MorphBinormal
)

// morphSuffixes is checked in order; "binorm" precedes "norm" because it
// contains it.
var morphSuffixes = []struct {
	suffix string
	kind   MorphKind
}{
	{"pos", MorphPosition},
	{"binorm", MorphBinormal},
	{"norm", MorphNormal},
	{"tan", MorphTangent},
}

// findAttribute returns the first attribute whose name contains tag.
func findAttribute(attrs []VertexAttribute, tag string) (VertexAttribute, bool) {
	for _, a := range attrs {
		if strings.Contains(a.Name, tag) {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// channelAttributes groups the attributes whose name contains tag by the
// channel number left after removing the tag. The first attribute seen for
// a channel wins.
func channelAttributes(attrs []VertexAttribute, tag string) map[int]VertexAttribute {
	channels := make(map[int]VertexAttribute)
	for _, a := range attrs {
		if !strings.Contains(a.Name, tag) {
			continue
		}
		ch := parseChannel(strings.ReplaceAll(a.Name, tag, ""))
		if _, seen := channels[ch]; !seen {
			channels[ch] = a
		}
	}
	return channels
}

// morphAttributes groups morph target attributes by kind and channel.
func morphAttributes(attrs []VertexAttribute) map[MorphKind]map[int]VertexAttribute {
	morphs := make(map[MorphKind]map[int]VertexAttribute)
	for _, a := range attrs {
		if !strings.Contains(a.Name, AttrMorphTarget) || a.Name == primaryTangentName {
			continue
		}
		rest := strings.ReplaceAll(a.Name, AttrMorphTarget, "")
		for _, m := range morphSuffixes {
			if !strings.Contains(rest, m.suffix) {
				continue
			}
			ch := parseChannel(strings.ReplaceAll(rest, m.suffix, ""))
			if morphs[m.kind] == nil {
				morphs[m.kind] = make(map[int]VertexAttribute)
			}
			if _, seen := morphs[m.kind][ch]; !seen {
				morphs[m.kind][ch] = a
			}
			break
		}
	}
	return morphs
}

// parseChannel parses a channel suffix. Empty, non-numeric and negative
// suffixes all read as channel 0.
func parseChannel(s string) int {
	ch, err := strconv.Atoi(s)
	if err != nil || ch < 0 {
		return 0
	}
	return ch
}
