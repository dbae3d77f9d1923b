package models

// ApplicationFields is the fixed set of content fields of an application.
// Updates are always built from Columns, never from caller-supplied keys.
type ApplicationFields struct {
	StudentName           string `json:"student_name"`
	StudentGender         string `json:"student_gender"`
	StudentGenderOther    string `json:"student_gender_other"`
	DOB                   string `json:"dob"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	Grade                 string `json:"grade"`
	ParentName            string `json:"parent_name"`
	ParentContact         string `json:"parent_contact"`
	SchoolName            string `json:"school_name"`
	SchoolLocation        string `json:"school_location"`
	SchoolContact         string `json:"school_contact"`
	TeacherName           string `json:"teacher_name"`
	TeacherContact        string `json:"teacher_contact"`
	TeacherEmail          string `json:"teacher_email"`
	Subjects              string `json:"subjects"`
	Interests             string `json:"interests"`
	AccommodationRequired string `json:"accommodation_required"`
	AccommodationComment  string `json:"accommodation_comment"`
	Essay1                string `json:"essay1"`
	Essay2                string `json:"essay2"`
	Essay3                string `json:"essay3"`
	OptionalInfo          string `json:"optional_info"`
}

var fieldColumns = []string{
	"student_name", "student_gender", "student_gender_other", "dob", "email", "phone", "grade",
	"parent_name", "parent_contact", "school_name", "school_location", "school_contact",
	"teacher_name", "teacher_contact", "teacher_email", "subjects", "interests",
	"accommodation_required", "accommodation_comment",
	"essay1", "essay2", "essay3", "optional_info",
}

// Columns returns the database column names in the same order as Values.
func (f *ApplicationFields) Columns() []string {
	out := make([]string, len(fieldColumns))
	copy(out, fieldColumns)
	return out
}

// Values returns the field values in column order.
func (f *ApplicationFields) Values() []any {
	return []any{
		f.StudentName, f.StudentGender, f.StudentGenderOther, f.DOB, f.Email, f.Phone, f.Grade,
		f.ParentName, f.ParentContact, f.SchoolName, f.SchoolLocation, f.SchoolContact,
		f.TeacherName, f.TeacherContact, f.TeacherEmail, f.Subjects, f.Interests,
		f.AccommodationRequired, f.AccommodationComment,
		f.Essay1, f.Essay2, f.Essay3, f.OptionalInfo,
	}
}

// Pointers returns scan destinations in column order.
func (f *ApplicationFields) Pointers() []any {
	return []any{
		&f.StudentName, &f.StudentGender, &f.StudentGenderOther, &f.DOB, &f.Email, &f.Phone, &f.Grade,
		&f.ParentName, &f.ParentContact, &f.SchoolName, &f.SchoolLocation, &f.SchoolContact,
		&f.TeacherName, &f.TeacherContact, &f.TeacherEmail, &f.Subjects, &f.Interests,
		&f.AccommodationRequired, &f.AccommodationComment,
		&f.Essay1, &f.Essay2, &f.Essay3, &f.OptionalInfo,
	}
}

// FieldGroup is a labelled subset of the content fields, used for layout.
type FieldGroup struct {
	Title  string
	Fields []LabeledValue
}

// LabeledValue pairs a human-readable label with a field value.
type LabeledValue struct {
	Label string
	Value string
}

// Groups returns the content fields arranged in display sections.
func (f *ApplicationFields) Groups() []FieldGroup {
	return []FieldGroup{
		{Title: "Student", Fields: []LabeledValue{
			{"Name", f.StudentName},
			{"Gender", f.StudentGender},
			{"Gender (other)", f.StudentGenderOther},
			{"Date of birth", f.DOB},
			{"Email", f.Email},
			{"Phone", f.Phone},
			{"Grade", f.Grade},
		}},
		{Title: "Parent or guardian", Fields: []LabeledValue{
			{"Name", f.ParentName},
			{"Contact", f.ParentContact},
		}},
		{Title: "School", Fields: []LabeledValue{
			{"Name", f.SchoolName},
			{"Location", f.SchoolLocation},
			{"Contact", f.SchoolContact},
		}},
		{Title: "Teacher reference", Fields: []LabeledValue{
			{"Name", f.TeacherName},
			{"Contact", f.TeacherContact},
			{"Email", f.TeacherEmail},
		}},
		{Title: "Academics", Fields: []LabeledValue{
			{"Subjects", f.Subjects},
			{"Interests", f.Interests},
		}},
		{Title: "Accommodation", Fields: []LabeledValue{
			{"Required", f.AccommodationRequired},
			{"Comment", f.AccommodationComment},
		}},
		{Title: "Essays", Fields: []LabeledValue{
			{"Essay 1", f.Essay1},
			{"Essay 2", f.Essay2},
			{"Essay 3", f.Essay3},
		}},
		{Title: "Additional information", Fields: []LabeledValue{
			{"Optional info", f.OptionalInfo},
		}},
	}
}
