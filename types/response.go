package types

type GraphResponse struct {
	DocId       string            `json:"docId"`
	Config      string            `json:"config"`
	Fingerprint string            `json:"fingerprint"`
	Themes      []AnnotationEntry `json:"themes"`
	Events      []AnnotationEntry `json:"events"`
}

type AnnotationEntry struct {
	Id         string              `json:"id"`
	Type       string              `json:"type"`
	Span       [2]int32            `json:"span"`
	Text       string              `json:"text"`
	Attributes map[string][]string `json:"attributes,omitempty"`
	Relations  map[string][]string `json:"relations,omitempty"`
}

func (entry *AnnotationEntry) GetSpan() *Span {
	return &Span{Begin: entry.Span[0], End: entry.Span[1]}
}
