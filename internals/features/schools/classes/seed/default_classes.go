package seed

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	classModel "schoolku_backend/internals/features/schools/classes/model"
	schoolModel "schoolku_backend/internals/features/schools/schools/model"
)

//go:embed default_classes.yaml
var defaultClassesYAML []byte

type ClassSeed struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

var (
	loadOnce sync.Once
	byLevel  map[schoolModel.SchoolLevel][]ClassSeed
	loadErr  error
)

// DefaultClasses returns the seed list for level. Unknown levels get none.
func DefaultClasses(level schoolModel.SchoolLevel) ([]ClassSeed, error) {
	loadOnce.Do(func() {
		raw := map[string][]ClassSeed{}
		if err := yaml.Unmarshal(defaultClassesYAML, &raw); err != nil {
			loadErr = fmt.Errorf("default classes: %w", err)
			return
		}
		byLevel = make(map[schoolModel.SchoolLevel][]ClassSeed, len(raw))
		for k, v := range raw {
			if lvl, ok := schoolModel.ParseSchoolLevel(k); ok {
				byLevel[lvl] = v
			}
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return byLevel[level], nil
}

// BuildDefaultClasses materialises the rows without writing them.
func BuildDefaultClasses(schoolID uuid.UUID, level schoolModel.SchoolLevel) ([]classModel.ClassModel, error) {
	seeds, err := DefaultClasses(level)
	if err != nil {
		return nil, err
	}
	rows := make([]classModel.ClassModel, 0, len(seeds))
	for i, s := range seeds {
		rows = append(rows, classModel.ClassModel{
			ClassSchoolID:  schoolID,
			ClassName:      s.Name,
			ClassCode:      s.Code,
			ClassSortOrder: i + 1,
		})
	}
	return rows, nil
}

// SeedDefaultClasses inserts the level's classes using tx. Existing codes are kept.
func SeedDefaultClasses(tx *gorm.DB, schoolID uuid.UUID, level schoolModel.SchoolLevel) (int, error) {
	rows, err := BuildDefaultClasses(schoolID, level)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return int(res.RowsAffected), res.Error
}
