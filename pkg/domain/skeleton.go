package domain

// Reserved symbols shared by every stage.
const (
	// StartSymbol is the single token the syntax stage starts from.
	StartSymbol = "START"
	// EndSymbol terminates the expansion of one upstream token.
	EndSymbol = "END"
	// PadSymbol fills contexts at the start of a sequence.
	PadSymbol = "<s>"
	// DefaultUnknown fills slots no candidate chain could serve.
	DefaultUnknown = "<unk>"
)

// Slot is one position of the skeleton.
type Slot struct {
	// Category is the syntactic category emitted by the last syntax layer.
	Category string `json:"category"`
	// Origin[l] is the index, within the input of syntax layer l, of the
	// token this slot descends from.
	Origin []int `json:"origin"`
	// Word is the lexical root chosen by the semantic stage.
	Word string `json:"word,omitempty"`
	// Surface is the cohesive form produced by the cohesion stage.
	Surface string `json:"surface,omitempty"`
}

// Skeleton is the ordered slot sequence flowing through the pipeline.
type Skeleton struct {
	Slots []Slot `json:"slots"`
	// Layers holds the token sequence produced by each syntax layer.
	Layers [][]string `json:"layers,omitempty"`
}

// Categories returns the slot categories in order.
func (s Skeleton) Categories() []string {
	out := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		out[i] = slot.Category
	}
	return out
}

// Words returns the filled lexical roots in order.
func (s Skeleton) Words() []string {
	out := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		out[i] = slot.Word
	}
	return out
}

// Clone returns a deep copy so later stages never alias earlier output.
func (s Skeleton) Clone() Skeleton {
	out := Skeleton{Slots: make([]Slot, len(s.Slots))}
	for i, slot := range s.Slots {
		slot.Origin = append([]int(nil), slot.Origin...)
		out.Slots[i] = slot
	}
	if s.Layers != nil {
		out.Layers = make([][]string, len(s.Layers))
		for i, l := range s.Layers {
			out.Layers[i] = append([]string(nil), l...)
		}
	}
	return out
}

// Spans partitions the slots into contiguous [start, end) ranges sharing the
// same ancestor at syntax layer parent. Slots are emitted in ancestor order,
// so equal origins are always adjacent.
func (s Skeleton) Spans(parent int) [][2]int {
	var spans [][2]int
	start := 0
	for i := 1; i <= len(s.Slots); i++ {
		if i == len(s.Slots) || s.Slots[i].origin(parent) != s.Slots[start].origin(parent) {
			spans = append(spans, [2]int{start, i})
			start = i
		}
	}
	if len(s.Slots) == 0 {
		return nil
	}
	return spans
}

func (s Slot) origin(layer int) int {
	if layer < 0 || layer >= len(s.Origin) {
		return 0
	}
	return s.Origin[layer]
}
