package exam

// ValidateChecklist checks an instructor's results against the configured
// item list: every configured item exactly once, nothing extra.
func ValidateChecklist(configured []ChecklistItem, results []ChecklistResult) error {
	want := make(map[string]struct{}, len(configured))
	for _, it := range configured {
		want[it.Name] = struct{}{}
	}

	seen := make(map[string]int, len(results))
	var duplicate, unknown []string
	for _, r := range results {
		seen[r.Name]++
		if seen[r.Name] == 2 {
			duplicate = append(duplicate, r.Name)
		}
		if _, ok := want[r.Name]; !ok && seen[r.Name] == 1 {
			unknown = append(unknown, r.Name)
		}
	}

	var missing []string
	for _, it := range configured {
		if seen[it.Name] == 0 {
			missing = append(missing, it.Name)
		}
	}

	if len(missing) > 0 || len(duplicate) > 0 || len(unknown) > 0 {
		return &ChecklistMismatchError{Missing: missing, Duplicate: duplicate, Unknown: unknown}
	}
	return nil
}

// ScoreChecklist derives the practical sub-score on the common 0-10 basis:
// 10 x passed/total, rounded to two decimals. The approve/reject decision
// is recorded separately and is never derived from this ratio.
func ScoreChecklist(results []ChecklistResult) float64 {
	if len(results) == 0 {
		return 0
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return Round2(10 * float64(passed) / float64(len(results)))
}
