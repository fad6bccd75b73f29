package formats

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind identifies which subset array a Field reads.
type FieldKind int

const (
	FieldPosition FieldKind = iota
	FieldUV
	FieldNormal
	FieldTangent
	FieldBinormal
	FieldColor
	FieldJoint
	FieldWeight
	FieldMorphPosition
	FieldMorphNormal
	FieldMorphTangent
	FieldMorphBinormal
)

// Field is one present attribute column of a subset.
type Field struct {
	Name    string
	Kind    FieldKind
	Channel int // UV or morph channel, 0 otherwise
}

// Fields lists the attribute arrays present on the subset in display order:
// position, UV channels, normal, tangent, binormal, color, joint, weight,
// then morph positions, normals, tangents and binormals by channel.
func (s *Subset) Fields() []Field {
	var fields []Field
	if s.positions != nil {
		fields = append(fields, Field{Name: "Position", Kind: FieldPosition})
	}
	for _, ch := range s.UVChannels() {
		fields = append(fields, Field{Name: "UV" + strconv.Itoa(ch), Kind: FieldUV, Channel: ch})
	}
	single := []struct {
		name    string
		kind    FieldKind
		present bool
	}{
		{"Normal", FieldNormal, s.normals != nil},
		{"Tangent", FieldTangent, s.tangents != nil},
		{"Binormal", FieldBinormal, s.binormals != nil},
		{"Color", FieldColor, s.colors != nil},
		{"Joint", FieldJoint, s.joints != nil},
		{"Weight", FieldWeight, s.weights != nil},
	}
	for _, f := range single {
		if f.present {
			fields = append(fields, Field{Name: f.name, Kind: f.kind})
		}
	}
	morphs := []struct {
		prefix string
		kind   FieldKind
		morph  MorphKind
	}{
		{"MorphPosition", FieldMorphPosition, MorphPosition},
		{"MorphNormal", FieldMorphNormal, MorphNormal},
		{"MorphTangent", FieldMorphTangent, MorphTangent},
		{"MorphBinormal", FieldMorphBinormal, MorphBinormal},
	}
	for _, m := range morphs {
		for _, ch := range s.MorphChannels(m.morph) {
			fields = append(fields, Field{Name: m.prefix + strconv.Itoa(ch), Kind: m.kind, Channel: ch})
		}
	}
	return fields
}

// FormatValue returns the value of field f at vertex as "(x, y, ...)".
// It returns an empty string if the vertex or field is not present.
func (s *Subset) FormatValue(f Field, vertex int) string {
	if vertex < 0 || vertex >= s.count {
		return ""
	}
	var components []float32
	switch f.Kind {
	case FieldPosition:
		components = vecAt(s.positions, vertex)
	case FieldUV:
		components = vecAt(s.uvs[f.Channel], vertex)
	case FieldNormal:
		components = vecAt(s.normals, vertex)
	case FieldTangent:
		components = vecAt(s.tangents, vertex)
	case FieldBinormal:
		components = vecAt(s.binormals, vertex)
	case FieldColor:
		components = vecAt(s.colors, vertex)
	case FieldJoint:
		components = vecAt(s.joints, vertex)
	case FieldWeight:
		components = vecAt(s.weights, vertex)
	case FieldMorphPosition:
		components = vecAt(s.morphs[MorphPosition][f.Channel], vertex)
	case FieldMorphNormal:
		components = vecAt(s.morphs[MorphNormal][f.Channel], vertex)
	case FieldMorphTangent:
		components = vecAt(s.morphs[MorphTangent][f.Channel], vertex)
	case FieldMorphBinormal:
		components = vecAt(s.morphs[MorphBinormal][f.Channel], vertex)
	}
	if components == nil {
		return ""
	}

	parts := make([]string, len(components))
	for i, c := range components {
		parts[i] = strconv.FormatFloat(float64(c), 'g', -1, 32)
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

func vecAt[V ~[2]float32 | ~[3]float32 | ~[4]float32](values []V, i int) []float32 {
	if i >= len(values) {
		return nil
	}
	v := values[i]
	out := make([]float32, len(v))
	for c := range out {
		out[c] = v[c]
	}
	return out
}
