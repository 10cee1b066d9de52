package database

// QuestionFields are the descriptive attributes a contributor submits with a
// question. Raw and curated questions share them.
type QuestionFields struct {
	QuestionText        *string `json:"question_text"`
	QuestionLanguage    *string `json:"question_language"`
	QuestionTextEnglish *string `json:"question_text_english"`
	QuestionFormat      *string `json:"question_format"`
	Context             *string `json:"context"`
	QuestionAskedOn     *string `json:"question_asked_on"`
	StudentName         *string `json:"student_name"`
	StudentGender       *string `json:"student_gender"`
	StudentClass        *string `json:"student_class"`
	School              *string `json:"school"`
	CurriculumFollowed  *string `json:"curriculum_followed"`
	MediumLanguage      *string `json:"medium_language"`
	Area                *string `json:"area"`
	State               *string `json:"state"`
	Published           bool    `json:"published"`
	PublishedSource     *string `json:"published_source"`
	PublishedDate       *string `json:"published_date"`
	Notes               *string `json:"notes"`
	Contributor         *string `json:"contributor"`
	ContributorRole     *string `json:"contributor_role"`
}

// RawQuestion is the archival copy of a submitted question. It is never
// updated after insert.
type RawQuestion struct {
	ID int64 `json:"id"`
	QuestionFields
	DatasetID   *int64  `json:"dataset_id"`
	SubmittedBy string  `json:"submitted_by"`
	CreatedOn   *string `json:"created_on"`
}

// Encoding holds the classification an encoder adds to a curated question.
type Encoding struct {
	SubjectOfSession          *string `json:"subject_of_session"`
	QuestionTopicRelation     *string `json:"question_topic_relation"`
	Motivation                *string `json:"motivation"`
	TypeOfInformation         *string `json:"type_of_information"`
	Source                    *string `json:"source"`
	CuriosityIndex            *string `json:"curiosity_index"`
	UrbanOrRural              *string `json:"urban_or_rural"`
	TypeOfSchool              *string `json:"type_of_school"`
	CommentsOnCodingRationale *string `json:"comments_on_coding_rationale"`
}

// Question is the curated, working copy of a question.
type Question struct {
	ID int64 `json:"id"`
	QuestionFields
	FieldOfInterest *string `json:"field_of_interest"`
	SubmissionID    *int64  `json:"submission_id"`
	CuratedBy       *string `json:"curated_by"`
	Encoding
	EncodedBy *string `json:"encoded_by"`
	CreatedOn *string `json:"created_on"`
	UpdatedOn *string `json:"updated_on"`
}

// Answer is one reviewer's answer to a question.
type Answer struct {
	ID         int64   `json:"id"`
	QuestionID int64   `json:"question_id"`
	AnswerText string  `json:"answer_text"`
	AnsweredBy string  `json:"answered_by"`
	CreatedOn  *string `json:"created_on"`
}

// TranslatedQuestion is a translation of a curated question.
type TranslatedQuestion struct {
	ID           int64  `json:"id"`
	QuestionID   int64  `json:"question_id"`
	QuestionText string `json:"question_text"`
	Language     string `json:"language"`
}

// Dataset status values.
const (
	DatasetStatusRaw = "raw"
)

// Dataset tracks one raw-intake upload.
type Dataset struct {
	ID            int64   `json:"id"`
	QuestionCount int     `json:"question_count"`
	SubmittedBy   string  `json:"submitted_by"`
	Status        string  `json:"status"`
	CreatedOn     *string `json:"created_on"`
}

// UncuratedSubmission tracks a sheet waiting for curation.
type UncuratedSubmission struct {
	ID                int64   `json:"id"`
	SubmissionID      int64   `json:"submission_id"`
	ExcelSheetName    string  `json:"excel_sheet_name"`
	NumberOfQuestions int     `json:"number_of_questions"`
	Curated           bool    `json:"curated"`
	CreatedOn         *string `json:"created_on"`
}

// UnencodedSubmission tracks a sheet waiting for encoding.
type UnencodedSubmission struct {
	ID                int64   `json:"id"`
	SubmissionID      int64   `json:"submission_id"`
	ExcelSheetName    string  `json:"excel_sheet_name"`
	NumberOfQuestions int     `json:"number_of_questions"`
	Encoded           bool    `json:"encoded"`
	CreatedOn         *string `json:"created_on"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	Datasets            int `json:"datasets"`
	RawQuestions        int `json:"raw_questions"`
	Questions           int `json:"questions"`
	EncodedQuestions    int `json:"encoded_questions"`
	Answers             int `json:"answers"`
	UnansweredQuestions int `json:"unanswered_questions"`
	PendingCuration     int `json:"pending_curation"`
	PendingEncoding     int `json:"pending_encoding"`
}
