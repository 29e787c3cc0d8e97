package classifier

import (
	"strings"

	"github.com/pbaille/pyq/internal/domain"
)

// Request is everything the model needs to organize one batch of papers.
// Build it with BuildRequest; fields are not modified afterwards.
type Request struct {
	syllabus string
	corpus   string
}

// BuildRequest captures the syllabus and corpus verbatim
func BuildRequest(syllabus, corpus string) Request {
	return Request{syllabus: syllabus, corpus: corpus}
}

// OutputContract describes the JSON the model must return
const OutputContract = `Return the result as a single, valid JSON object. The keys of the object must be the unit names exactly as written in the syllabus, and each value must be an array of strings, where each string is a unique question belonging to that unit.`

const exampleOutput = `{
  "Unit 1: Thermodynamics": ["Question A...", "Question B..."],
  "Unit 2: Optics": ["Question C..."],
  "` + domain.Miscellaneous + `": ["Question D..."]
}`

// Instruction renders the prompt sent to the language model
func (r Request) Instruction() string {
	var sb strings.Builder

	sb.WriteString("You are an expert academic assistant. Your task is to analyze the text from several question papers and categorize each question according to the provided syllabus.\n\n")

	sb.WriteString("Syllabus:\n")
	sb.WriteString(r.syllabus)
	sb.WriteString("\n\n")

	sb.WriteString("Combined Question Paper Text:\n")
	sb.WriteString(r.corpus)
	sb.WriteString("\n\n")

	sb.WriteString(`Instructions:
1. Read through the entire combined text from all papers. Papers are separated by a line reading "--- END OF PAPER ---".
2. Identify every distinct question. Do not include duplicate questions, even when the same question appears in several papers.
3. For each question, determine which unit from the syllabus it belongs to. Place every question in exactly one unit.
4. If a question doesn't fit any unit, place it in a category named "` + domain.Miscellaneous + `".
5. `)
	sb.WriteString(OutputContract)
	sb.WriteString("\n\nExample JSON Output:\n")
	sb.WriteString(exampleOutput)
	sb.WriteString("\n\nNow, provide the JSON output for the given syllabus and combined question paper text. Return ONLY the JSON, no other text.")

	return sb.String()
}
