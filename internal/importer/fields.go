package importer

import (
	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
)

type fieldSetter func(f *database.QuestionFields, c sheet.Cell)

func text(dst func(f *database.QuestionFields) **string) fieldSetter {
	return func(f *database.QuestionFields, c sheet.Cell) {
		v := c.Trimmed()
		*dst(f) = &v
	}
}

// setters covers every field shared by raw and curated questions.
var setters = map[schema.Field]fieldSetter{
	schema.QuestionText:        text(func(f *database.QuestionFields) **string { return &f.QuestionText }),
	schema.QuestionLanguage:    text(func(f *database.QuestionFields) **string { return &f.QuestionLanguage }),
	schema.QuestionTextEnglish: text(func(f *database.QuestionFields) **string { return &f.QuestionTextEnglish }),
	schema.QuestionFormat:      text(func(f *database.QuestionFields) **string { return &f.QuestionFormat }),
	schema.Context:             text(func(f *database.QuestionFields) **string { return &f.Context }),
	schema.QuestionAskedOn:     text(func(f *database.QuestionFields) **string { return &f.QuestionAskedOn }),
	schema.StudentName:         text(func(f *database.QuestionFields) **string { return &f.StudentName }),
	schema.StudentGender:       text(func(f *database.QuestionFields) **string { return &f.StudentGender }),
	schema.StudentClass:        text(func(f *database.QuestionFields) **string { return &f.StudentClass }),
	schema.School:              text(func(f *database.QuestionFields) **string { return &f.School }),
	schema.CurriculumFollowed:  text(func(f *database.QuestionFields) **string { return &f.CurriculumFollowed }),
	schema.MediumLanguage:      text(func(f *database.QuestionFields) **string { return &f.MediumLanguage }),
	schema.Area:                text(func(f *database.QuestionFields) **string { return &f.Area }),
	schema.State:               text(func(f *database.QuestionFields) **string { return &f.State }),
	schema.PublishedSource:     text(func(f *database.QuestionFields) **string { return &f.PublishedSource }),
	schema.PublishedDate:       text(func(f *database.QuestionFields) **string { return &f.PublishedDate }),
	schema.Notes:               text(func(f *database.QuestionFields) **string { return &f.Notes }),
	schema.Contributor:         text(func(f *database.QuestionFields) **string { return &f.Contributor }),
	schema.ContributorRole:     text(func(f *database.QuestionFields) **string { return &f.ContributorRole }),
	schema.Published: func(f *database.QuestionFields, c sheet.Cell) {
		v, _ := c.Value()
		f.Published = v == "Yes"
	},
}

// applyFields sets every present cell whose column maps to a shared field.
// It reports the fields it did not handle so callers can apply their own.
func applyFields(f *database.QuestionFields, row sheet.Row, cols map[string]schema.Field) map[schema.Field]sheet.Cell {
	rest := make(map[schema.Field]sheet.Cell)
	for label, field := range cols {
		c := row.Get(label)
		if c.IsAbsent() {
			continue
		}
		if set, ok := setters[field]; ok {
			set(f, c)
			continue
		}
		rest[field] = c
	}
	return rest
}
