package query

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		question string
		want     Mode
	}{
		{"How many documents mention AI ethics?", ModeAnalytical},
		{"What is the average sentiment by country?", ModeAnalytical},
		{"Show me the top authorities", ModeAnalytical},
		{"Summarize the GDPR enforcement documents", ModeDocument},
		{"Tell me about the AI Act", ModeDocument},
		{"What does the executive order say?", ModeDocument},
		{"hello", ModeHybrid},
		{"", ModeHybrid},
		// one hit on each side
		{"Count the documents and summarize them", ModeHybrid},
	}
	for _, tc := range cases {
		if got := Classify(tc.question); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.question, got, tc.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("HOW MANY documents are there?"); got != ModeAnalytical {
		t.Errorf("expected analytical, got %s", got)
	}
}

func TestScores(t *testing.T) {
	analytical, document := Scores("compare the average sentiment and summarize the content")
	if analytical != 2 {
		t.Errorf("expected 2 analytical hits, got %d", analytical)
	}
	if document != 2 {
		t.Errorf("expected 2 document hits, got %d", document)
	}
}
