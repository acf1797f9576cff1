package review

// Persona is one reviewer configuration: a named perspective with a focus
// prompt and shared response contract. Personas are static data, loaded once
// and read-only; new reviewers are added by adding a record here.
type Persona struct {
	Type        string
	Name        string
	Description string
	Icon        string
	Focus       string
}

var personas = []Persona{
	{
		Type:        "editor_overview",
		Name:        "Editor Overview",
		Description: "Provides a high-level summary and editorial assessment",
		Icon:        "📝",
		Focus: `You are an academic journal editor reviewing a submitted manuscript.
Provide a concise editorial overview that covers:
1. A brief summary of the paper's main contribution
2. Overall assessment of the manuscript quality
3. Key strengths and weaknesses
4. Recommendation (accept, minor revisions, major revisions, reject)`,
	},
	{
		Type:        "methodology_reviewer",
		Name:        "Methodology Reviewer",
		Description: "Evaluates research methodology and study design",
		Icon:        "🔬",
		Focus: `You are a methodology expert reviewing a research paper.
Evaluate the research methodology including:
1. Study design appropriateness
2. Sample size and selection
3. Data collection methods
4. Statistical analysis
5. Potential biases and limitations`,
	},
	{
		Type:        "novelty_reviewer",
		Name:        "Novelty Reviewer",
		Description: "Assesses the originality and contribution to the field",
		Icon:        "💡",
		Focus: `You are an expert reviewer assessing the novelty and contribution of a research paper.
Evaluate:
1. Originality of the research question
2. Novel contributions to the field
3. Comparison with existing literature
4. Significance of findings`,
	},
	{
		Type:        "clarity_reviewer",
		Name:        "Clarity & Writing Reviewer",
		Description: "Reviews writing quality, clarity, and presentation",
		Icon:        "✍️",
		Focus: `You are an expert reviewer focusing on writing quality and clarity.
Evaluate:
1. Overall writing quality
2. Clarity of explanations
3. Organization and structure
4. Figure and table quality
5. Grammar and style issues`,
	},
	{
		Type:        "reproducibility_reviewer",
		Name:        "Reproducibility Reviewer",
		Description: "Evaluates reproducibility and data availability",
		Icon:        "🔄",
		Focus: `You are an expert reviewer focusing on reproducibility.
Evaluate:
1. Availability of data and code
2. Clarity of methods description
3. Reproducibility of experiments
4. Documentation quality`,
	},
}

// Personas returns all configured reviewer personas in their fixed order.
// The returned slice is a copy; the registry itself is never mutated.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// PersonaByType looks up a persona by its type identifier.
func PersonaByType(personaType string) (Persona, bool) {
	for _, p := range personas {
		if p.Type == personaType {
			return p, true
		}
	}
	return Persona{}, false
}
