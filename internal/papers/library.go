package papers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type libraryFile struct {
	Papers []Paper `json:"papers" yaml:"papers"`
}

// LoadLibrary reads extra seed papers from a JSON or YAML file. The file is
// only ever read; saves stay in memory.
func LoadLibrary(path string) ([]Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var parsed []Paper
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parsed, err = decodeYAMLLibrary(data)
	default:
		parsed, err = decodeJSONLibrary(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse library %s: %w", path, err)
	}
	return normalizeLibrary(parsed)
}

func decodeJSONLibrary(data []byte) ([]Paper, error) {
	var list []Paper
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapper libraryFile
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Papers, nil
}

func decodeYAMLLibrary(data []byte) ([]Paper, error) {
	var list []Paper
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapper libraryFile
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Papers, nil
}

func normalizeLibrary(list []Paper) ([]Paper, error) {
	out := make([]Paper, 0, len(list))
	seen := map[string]bool{}
	for i, paper := range list {
		paper.ID = strings.TrimSpace(paper.ID)
		if paper.ID == "" {
			return nil, fmt.Errorf("paper #%d has no id", i+1)
		}
		if seen[paper.ID] {
			return nil, fmt.Errorf("duplicate paper id %q", paper.ID)
		}
		seen[paper.ID] = true
		status, err := ParseStatus(string(paper.Status))
		if err != nil {
			return nil, fmt.Errorf("paper %s: %w", paper.ID, err)
		}
		paper.Status = status
		if len(paper.Authors) == 0 {
			return nil, fmt.Errorf("paper %s has no authors", paper.ID)
		}
		if paper.Citations < 0 {
			return nil, fmt.Errorf("paper %s has negative citations", paper.ID)
		}
		if paper.Tags == nil {
			paper.Tags = []string{}
		}
		out = append(out, paper)
	}
	return out, nil
}
