package retrieval

import "testing"

func testEvidence() EvidencePack {
	return EvidencePack{
		Query: "how many users",
		Items: []EvidenceItem{
			{CitationID: "c1", ItemID: "item-1", Text: "The platform has 500 users as of June."},
			{CitationID: "c2", ItemID: "item-2", Text: "Reports indicate 500 active users."},
			{CitationID: "c3", ItemID: "item-3", Text: "An earlier estimate put the count at 750 users."},
		},
	}
}

func TestVerifyPassesWithValidCitation(t *testing.T) {
	answer := Answer{
		Text:      "The platform has 500 users [c1].",
		Citations: []string{"c1"},
	}
	result := Verify(answer, testEvidence())
	if !result.OK {
		t.Fatalf("expected OK, got %+v", result)
	}
}

func TestVerifyDetectsMissingCitation(t *testing.T) {
	answer := Answer{
		Text: "The platform has 500 users.",
	}
	result := Verify(answer, testEvidence())
	if result.OK {
		t.Fatal("expected verification to fail on an uncited factual sentence")
	}
	if len(result.MissingCitations) != 1 {
		t.Fatalf("expected one missing-citation sentence, got %+v", result.MissingCitations)
	}
}

func TestVerifyIgnoresOpinionSentences(t *testing.T) {
	answer := Answer{
		Text: "I think the platform is popular.",
	}
	result := Verify(answer, testEvidence())
	if !result.OK {
		t.Fatalf("expected opinion sentence to need no citation, got %+v", result)
	}
}

func TestVerifyDetectsContradiction(t *testing.T) {
	answer := Answer{
		Text:      "The platform has 500 users [c1, c3].",
		Citations: []string{"c1", "c3"},
	}
	result := Verify(answer, testEvidence())
	if result.OK {
		t.Fatal("expected contradiction between c1 (500) and c3 (750) to fail verification")
	}
	if len(result.Contradictions) != 1 {
		t.Fatalf("expected one contradiction, got %+v", result.Contradictions)
	}
}

func TestVerifyReportsUnreferencedCitationAsWarningOnly(t *testing.T) {
	answer := Answer{
		Text:      "The platform has 500 users [c1].",
		Citations: []string{"c1", "c2"},
	}
	result := Verify(answer, testEvidence())
	if !result.OK {
		t.Fatalf("unreferenced citations must not fail verification, got %+v", result)
	}
	if len(result.UnreferencedCitations) != 1 || result.UnreferencedCitations[0] != "c2" {
		t.Fatalf("expected c2 flagged as unreferenced, got %+v", result.UnreferencedCitations)
	}
}

func TestCheckMonotonicityRejectsSilentRemoval(t *testing.T) {
	err := CheckMonotonicity([]string{"c1", "c2"}, []string{"c1"}, false)
	if err != ErrCitationRemoved {
		t.Fatalf("expected ErrCitationRemoved, got %v", err)
	}
}

func TestCheckMonotonicityAllowsAuthorizedRevision(t *testing.T) {
	err := CheckMonotonicity([]string{"c1", "c2"}, []string{"c1"}, true)
	if err != nil {
		t.Fatalf("expected authorized revision to pass, got %v", err)
	}
}
