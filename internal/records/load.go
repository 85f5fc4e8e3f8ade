package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads an input document (JSON or YAML) from path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes an input document. ext is a format hint (".json", ".yaml", ".yml");
// when empty or unknown the format is detected from content.
func Parse(data []byte, ext string) (Document, error) {
	raw := map[string]any{}
	switch formatOf(data, ext) {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Document{}, fmt.Errorf("parse document json: %w", err)
		}
	default:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return Document{}, fmt.Errorf("parse document yaml: %w", err)
		}
		switch top := yamlValue(&node).(type) {
		case nil:
		case map[string]any:
			raw = top
		default:
			return Document{}, fmt.Errorf("parse document yaml: top level is %T, want mapping", top)
		}
	}
	return FromMap(raw)
}

// yamlValue converts a YAML node tree to plain values. Scalars keep their
// source text, so unquoted dates and numbers stay strings.
func yamlValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = yamlValue(n.Content[i+1])
		}
		return out
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			out = append(out, yamlValue(item))
		}
		return out
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

// FromMap builds a Document from an already decoded object.
// Records inside a collection are not validated here; the classifier does that.
func FromMap(raw map[string]any) (Document, error) {
	var doc Document
	var err error
	if doc.Emails, err = collection(raw, CollectionEmails); err != nil {
		return Document{}, err
	}
	if doc.SiteLogs, err = collection(raw, CollectionSiteLogs); err != nil {
		return Document{}, err
	}
	if doc.InspectionReports, err = collection(raw, CollectionInspectionReports); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func collection(raw map[string]any, name string) ([]Record, error) {
	value, ok := raw[name]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &MalformedRecordError{Collection: name, Index: -1, Reason: fmt.Sprintf("collection is %T, want array", value)}
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		// Non-object entries become nil records and fail decoding with their index.
		obj, _ := item.(map[string]any)
		out = append(out, Record(obj))
	}
	return out, nil
}

func formatOf(data []byte, ext string) string {
	switch strings.ToLower(ext) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return "json"
	}
	return "yaml"
}
