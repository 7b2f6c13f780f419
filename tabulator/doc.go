// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tabulator runs the progressive tabulation of one election.

A Tabulator owns a ballot set that only grows. Every Append re-runs all four
rules over the complete set and returns a models.StepRecord whose Step equals
the number of ballots so far:

	tab := tabulator.New(runID, models.DefaultCandidates())
	for i := 0; i < maxVoters; i++ {
		rec, err := tab.Append(sampler.Sample())
		if err != nil {
			return err
		}
		recorder.AppendStep(ctx, rec)
	}

Nothing is carried between steps except the ballots themselves: no tally is
updated incrementally. The Ballots slice in a record shares storage with the
tabulator but is clipped, so it never changes after it is returned.
*/
package tabulator
