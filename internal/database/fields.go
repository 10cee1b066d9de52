package database

import "strings"

// fieldColumns lists the QuestionFields columns in the order fieldArgs and
// fieldDest produce them.
var fieldColumns = []string{
	"question_text", "question_language", "question_text_english", "question_format",
	"context", "question_asked_on", "student_name", "student_gender", "student_class",
	"school", "curriculum_followed", "medium_language", "area", "state", "published",
	"published_source", "published_date", "notes", "contributor", "contributor_role",
}

func fieldArgs(f *QuestionFields) []any {
	return []any{
		f.QuestionText, f.QuestionLanguage, f.QuestionTextEnglish, f.QuestionFormat,
		f.Context, f.QuestionAskedOn, f.StudentName, f.StudentGender, f.StudentClass,
		f.School, f.CurriculumFollowed, f.MediumLanguage, f.Area, f.State, boolToInt(f.Published),
		f.PublishedSource, f.PublishedDate, f.Notes, f.Contributor, f.ContributorRole,
	}
}

// fieldDest returns scan destinations for the QuestionFields columns. The
// published flag is scanned into *published and must be copied back by the
// caller.
func fieldDest(f *QuestionFields, published *int) []any {
	return []any{
		&f.QuestionText, &f.QuestionLanguage, &f.QuestionTextEnglish, &f.QuestionFormat,
		&f.Context, &f.QuestionAskedOn, &f.StudentName, &f.StudentGender, &f.StudentClass,
		&f.School, &f.CurriculumFollowed, &f.MediumLanguage, &f.Area, &f.State, published,
		&f.PublishedSource, &f.PublishedDate, &f.Notes, &f.Contributor, &f.ContributorRole,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
