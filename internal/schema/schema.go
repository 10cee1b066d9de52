// Package schema holds the fixed mapping from human-readable spreadsheet
// column labels to persisted field identifiers.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field identifies a persisted question attribute. Its value is the
// database column name.
type Field string

const (
	QuestionText        Field = "question_text"
	QuestionLanguage    Field = "question_language"
	QuestionTextEnglish Field = "question_text_english"
	QuestionFormat      Field = "question_format"
	Context             Field = "context"
	QuestionAskedOn     Field = "question_asked_on"
	StudentName         Field = "student_name"
	StudentGender       Field = "student_gender"
	StudentClass        Field = "student_class"
	School              Field = "school"
	CurriculumFollowed  Field = "curriculum_followed"
	MediumLanguage      Field = "medium_language"
	Area                Field = "area"
	State               Field = "state"
	Published           Field = "published"
	PublishedSource     Field = "published_source"
	PublishedDate       Field = "published_date"
	Notes               Field = "notes"
	Contributor         Field = "contributor"
	ContributorRole     Field = "contributor_role"

	ID              Field = "id"
	SubmissionID    Field = "submission_id"
	FieldOfInterest Field = "field_of_interest"
)

// Column labels as they appear in spreadsheet headers.
const (
	LabelQuestion           = "Question"
	LabelQuestionLanguage   = "Question Language"
	LabelEnglishTranslation = "English translation of the question"
	LabelQuestionFormat     = "How was the question originally asked?"
	LabelContext            = "Context"
	LabelDateAsked          = "Date of asking the question"
	LabelStudentName        = "Student Name"
	LabelGender             = "Gender"
	LabelStudentClass       = "Student Class"
	LabelSchoolName         = "School Name"
	LabelCurriculum         = "Curriculum followed"
	LabelMedium             = "Medium of instruction"
	LabelArea               = "Area"
	LabelState              = "State"
	LabelPublished          = "Published (Yes/No)"
	LabelPublicationName    = "Publication Name"
	LabelPublicationDate    = "Publication Date"
	LabelNotes              = "Notes"
	LabelContributorName    = "Contributor Name"
	LabelContributorRole    = "Contributor Role"
	LabelID                 = "id"
	LabelSubmissionID       = "submission_id"
	LabelFieldOfInterest    = "Field of Interest"
	LabelSubjectOfSession   = "Subject of class/session"
	LabelTopicRelation      = `Question topic "R"elated or "U"nrelated to the topic or "S"ponteneous`
	LabelMotivation         = "Motivation for asking question"
	LabelTypeOfInformation  = "Type of information requested"
	LabelSource             = "Source"
	LabelCuriosityIndex     = "Curiosity index"
	LabelUrbanRural         = "Urban/Rural"
	LabelTypeOfSchool       = "Type of school"
	LabelCodingRationale    = "Comments for coding rationale"
)

// Stage selects which mapping table applies to a sheet.
type Stage int

const (
	StageRaw Stage = iota
	StageCuration
)

func (s Stage) String() string {
	switch s {
	case StageRaw:
		return "raw"
	case StageCuration:
		return "curation"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type column struct {
	label string
	field Field
}

// rawColumns is the raw-intake table, in template order.
var rawColumns = []column{
	{LabelQuestion, QuestionText},
	{LabelQuestionLanguage, QuestionLanguage},
	{LabelEnglishTranslation, QuestionTextEnglish},
	{LabelQuestionFormat, QuestionFormat},
	{LabelContext, Context},
	{LabelDateAsked, QuestionAskedOn},
	{LabelStudentName, StudentName},
	{LabelGender, StudentGender},
	{LabelStudentClass, StudentClass},
	{LabelSchoolName, School},
	{LabelCurriculum, CurriculumFollowed},
	{LabelMedium, MediumLanguage},
	{LabelArea, Area},
	{LabelState, State},
	{LabelPublished, Published},
	{LabelPublicationName, PublishedSource},
	{LabelPublicationDate, PublishedDate},
	{LabelNotes, Notes},
	{LabelContributorName, Contributor},
	{LabelContributorRole, ContributorRole},
}

// curationColumns extends the raw table with the identity columns and the
// column added for curators by the raw-to-curation derived sheet.
var curationColumns = append(append([]column(nil), rawColumns...),
	column{LabelID, ID},
	column{LabelSubmissionID, SubmissionID},
	column{LabelFieldOfInterest, FieldOfInterest},
)

var tables = map[Stage]map[string]Field{
	StageRaw:      index(rawColumns),
	StageCuration: index(curationColumns),
}

func index(cols []column) map[string]Field {
	m := make(map[string]Field, len(cols))
	for _, c := range cols {
		m[c.label] = c.field
	}
	return m
}

// ErrUnknownColumn is returned when a header label is not in the table.
var ErrUnknownColumn = errors.New("unknown column")

// UnknownColumnError lists every header label the table did not recognise.
type UnknownColumnError struct {
	Stage  Stage
	Labels []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%s sheet: unknown column(s): %s", e.Stage, strings.Join(quote(e.Labels), ", "))
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

func quote(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// Lookup returns the field for a header label. Surrounding whitespace is
// ignored; otherwise the match is exact.
func Lookup(stage Stage, label string) (Field, error) {
	label = strings.TrimSpace(label)
	f, ok := tables[stage][label]
	if !ok {
		return "", &UnknownColumnError{Stage: stage, Labels: []string{label}}
	}
	return f, nil
}

// Resolve maps every header label to its field, failing with a single
// UnknownColumnError that names all unrecognised labels. Columns without a
// header label are left out of the result.
func Resolve(stage Stage, header []string) (map[string]Field, error) {
	out := make(map[string]Field, len(header))
	var unknown []string
	for _, h := range header {
		label := strings.TrimSpace(h)
		if label == "" {
			continue
		}
		f, ok := tables[stage][label]
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		out[label] = f
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownColumnError{Stage: stage, Labels: unknown}
	}
	return out, nil
}

// Labels returns the column labels of a stage's table in template order.
func Labels(stage Stage) []string {
	cols := rawColumns
	if stage == StageCuration {
		cols = curationColumns
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.label
	}
	return out
}

// encodingLabels are the columns an encoder fills in, in sheet order.
var encodingLabels = []string{
	LabelSubjectOfSession,
	LabelTopicRelation,
	LabelMotivation,
	LabelTypeOfInformation,
	LabelSource,
	LabelCuriosityIndex,
	LabelUrbanRural,
	LabelTypeOfSchool,
	LabelCodingRationale,
}

// EncodingLabels returns the encoding column labels in sheet order.
func EncodingLabels() []string {
	return append([]string(nil), encodingLabels...)
}
