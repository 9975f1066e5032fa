// Package knowledge provides the knowledge ingestion adapter.
// The degree-program content ships embedded in the binary; the loader turns
// it into the Records the indexer consumes. The corpus is finite and static:
// loaded once at startup, never mutated.
package knowledge

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

//go:embed data/*.json
var dataFS embed.FS

// Source identifiers for the policy documents. Course records use
// "<course_code>.json" as their source id.
const (
	SourceMajorMaster  = "CS_BS_Major_Master_Document"
	SourceLSDegree     = "LS_BS_Degree_Requirements"
	SourceGeneralEdReq = "University_General_Requirements"
)

// Loader implements ports.KnowledgeSource over the embedded data files.
type Loader struct{}

// NewLoader creates a knowledge base loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Records returns the knowledge base as indexable records: one master
// document for the major, one record per course, and one record per
// university-level requirement document.
func (l *Loader) Records() ([]entities.Record, error) {
	var records []entities.Record

	master, err := loadObject("data/cs_bs_major.json")
	if err != nil {
		return nil, err
	}
	records = append(records, entities.Record{SourceID: SourceMajorMaster, Content: master})

	courses, err := loadArray("data/courses.json")
	if err != nil {
		return nil, err
	}
	for i, course := range courses {
		code, _ := course["course_code"].(string)
		if code == "" {
			return nil, fmt.Errorf("course entry %d has no course_code", i)
		}
		records = append(records, entities.Record{SourceID: code + ".json", Content: course})
	}

	lsDegree, err := loadObject("data/ls_bs_degree_requirements.json")
	if err != nil {
		return nil, err
	}
	records = append(records, entities.Record{SourceID: SourceLSDegree, Content: lsDegree})

	genEd, err := loadObject("data/university_general_education.json")
	if err != nil {
		return nil, err
	}
	records = append(records, entities.Record{SourceID: SourceGeneralEdReq, Content: genEd})

	return records, nil
}

func loadObject(path string) (map[string]any, error) {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return obj, nil
}

func loadArray(path string) ([]map[string]any, error) {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var arr []map[string]any
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return arr, nil
}
