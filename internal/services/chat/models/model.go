package models

const (
	ModelGrok3           = "grok-3"
	ModelGrok3Reasoning  = "grok-3t"
	ModelGrok3Deepsearch = "grok-3ds"

	DefaultModel = ModelGrok3

	modelCreated = 1145141919
	modelOwner   = "yilongma"
)

// Model describes a client-visible model and the Grok features it turns on
type Model struct {
	ID           string
	IsReasoning  bool
	IsDeepsearch bool
}

var catalogue = []Model{
	{ID: ModelGrok3},
	{ID: ModelGrok3Reasoning, IsReasoning: true},
	{ID: ModelGrok3Deepsearch, IsDeepsearch: true},
}

// LookupModel returns the catalogue entry for id, or the default model when id is unknown
func LookupModel(id string) Model {
	for _, m := range catalogue {
		if m.ID == id {
			return m
		}
	}
	return catalogue[0]
}

// ModelCard is one entry of the model list
type ModelCard struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the body of GET /v1/models
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelCard `json:"data"`
}

func ListModels() ModelList {
	data := make([]ModelCard, 0, len(catalogue))
	for _, m := range catalogue {
		data = append(data, ModelCard{
			ID:      m.ID,
			Object:  "model",
			Created: modelCreated,
			OwnedBy: modelOwner,
		})
	}
	return ModelList{Object: "list", Data: data}
}
