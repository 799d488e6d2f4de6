package search

// VectorDimension is the embedding size declared in the index schema.
// Every document written must carry a vector of exactly this length.
const VectorDimension = 1536

// Document is one line of the bulk upsert body. The external id keys the
// index entry, so re-upserting the same id overwrites the prior entry.
// Context is omitted entirely when the source record has none.
type Document struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   *string   `json:"context,omitempty"`
	Embedding []float32 `json:"embedding"`
}

// IndexSchema declares the index created by bootstrap: a knn-enabled
// vector field plus auxiliary scalar fields for filtering and retrieval.
type IndexSchema struct {
	Settings IndexSettings `json:"settings"`
	Mappings IndexMappings `json:"mappings"`
}

type IndexSettings struct {
	Index KNNSettings `json:"index"`
}

type KNNSettings struct {
	KNN bool `json:"knn"`
}

type IndexMappings struct {
	Properties map[string]FieldMapping `json:"properties"`
}

type FieldMapping struct {
	Type      string `json:"type"`
	Dimension int    `json:"dimension,omitempty"`
}

// DefaultSchema returns the schema bootstrap creates.
func DefaultSchema() IndexSchema {
	return IndexSchema{
		Settings: IndexSettings{Index: KNNSettings{KNN: true}},
		Mappings: IndexMappings{Properties: map[string]FieldMapping{
			"embedding": {Type: "knn_vector", Dimension: VectorDimension},
			"text":      {Type: "text"},
			"id":        {Type: "keyword"},
		}},
	}
}
