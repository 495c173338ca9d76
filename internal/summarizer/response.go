package summarizer

import "encoding/json"

// responseShape is one known layout of a generation response.
type responseShape interface {
	extract(raw []byte) (string, bool)
}

// Tried in order; the first shape yielding non-empty text wins.
var responseShapes = []responseShape{
	candidatesShape{},
	outputShape{},
	flatTextShape{},
}

// ExtractText pulls the generated text out of a response body.
func ExtractText(raw []byte) string {
	for _, shape := range responseShapes {
		if text, ok := shape.extract(raw); ok {
			return text
		}
	}
	return NoTextMessage
}

// candidatesShape: {"candidates":[{"content":{"parts":[{"text":...}]}}]}.
// Some gateways send content as an array of such objects.
type candidatesShape struct{}

func (candidatesShape) extract(raw []byte) (string, bool) {
	var resp struct {
		Candidates []struct {
			Content json.RawMessage `json:"content"`
		} `json:"candidates"`
	}
	if json.Unmarshal(raw, &resp) != nil || len(resp.Candidates) == 0 {
		return "", false
	}

	type parts struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	var single parts
	if json.Unmarshal(resp.Candidates[0].Content, &single) == nil {
		if len(single.Parts) > 0 && single.Parts[0].Text != "" {
			return single.Parts[0].Text, true
		}
		return "", false
	}
	var many []parts
	if json.Unmarshal(resp.Candidates[0].Content, &many) == nil &&
		len(many) > 0 && len(many[0].Parts) > 0 && many[0].Parts[0].Text != "" {
		return many[0].Parts[0].Text, true
	}
	return "", false
}

// outputShape: {"output":[{"content":[{"text":...}]}]}.
type outputShape struct{}

func (outputShape) extract(raw []byte) (string, bool) {
	var resp struct {
		Output []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if json.Unmarshal(raw, &resp) != nil ||
		len(resp.Output) == 0 || len(resp.Output[0].Content) == 0 || resp.Output[0].Content[0].Text == "" {
		return "", false
	}
	return resp.Output[0].Content[0].Text, true
}

// flatTextShape: {"text":...}.
type flatTextShape struct{}

func (flatTextShape) extract(raw []byte) (string, bool) {
	var resp struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &resp) != nil || resp.Text == "" {
		return "", false
	}
	return resp.Text, true
}
