package domain

// Field identifies a mutable task attribute.
type Field int

const (
	FieldTitle Field = iota
	FieldLocation
	FieldDescription
	FieldStoryPoint
	FieldPriority
	FieldStatus
	FieldTags
	FieldHistory
	FieldModifier
)

var fieldNames = [...]string{
	"title",
	"location",
	"description",
	"storyPoint",
	"priority",
	"status",
	"tags",
	"history",
	"modifier",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

func ParseField(key string) (Field, bool) {
	for i, name := range fieldNames {
		if name == key {
			return Field(i), true
		}
	}
	return 0, false
}

// Fields lists every recognised field in declaration order.
func Fields() []Field {
	out := make([]Field, len(fieldNames))
	for i := range fieldNames {
		out[i] = Field(i)
	}
	return out
}
