package planner

// distributeEvenly splits total into parts buckets whose sizes differ by at
// most one, larger buckets first.
func distributeEvenly(total, parts int) []int {
	if parts <= 0 {
		return nil
	}
	out := make([]int, parts)
	base := total / parts
	rem := total % parts
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// allocateBySkill distributes a deficit across sub-skills one question at a
// time, always topping up the skill with the lowest combined
// (existing + allocated) count. Ties resolve to the earlier skill in the
// configured order, which keeps the allocation deterministic. A skill whose
// existing count already sits at or above its fair share receives nothing.
func allocateBySkill(deficit int, skills []string, existing map[string]int) map[string]int {
	alloc := make(map[string]int, len(skills))
	counts := make([]int, len(skills))
	for i, s := range skills {
		counts[i] = existing[s]
	}

	for n := 0; n < deficit; n++ {
		best := 0
		for i := 1; i < len(counts); i++ {
			if counts[i] < counts[best] {
				best = i
			}
		}
		counts[best]++
		alloc[skills[best]]++
	}
	return alloc
}

// interleaveSkills flattens a per-skill allocation into a round-robin
// sequence (a, b, c, a, b, c, ...) so adjacent units carry different skills.
func interleaveSkills(skills []string, alloc map[string]int) []string {
	remaining := make(map[string]int, len(alloc))
	total := 0
	for s, n := range alloc {
		remaining[s] = n
		total += n
	}

	out := make([]string, 0, total)
	for len(out) < total {
		progressed := false
		for _, s := range skills {
			if remaining[s] > 0 {
				out = append(out, s)
				remaining[s]--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
