package assertions

import (
	"github.com/abdul-hamid-achik/timecheck/packages/http"
)

// Evaluate checks every predicate against resp, in order. A failing
// predicate never prevents the ones after it from running.
func Evaluate(resp *http.Response, preds []Predicate) []*Result {
	results := make([]*Result, 0, len(preds))
	for _, p := range preds {
		if resp == nil {
			r := newResult(p)
			r.Message = "no response was captured"
			results = append(results, r)
			continue
		}
		results = append(results, p.Check(resp))
	}
	return results
}
