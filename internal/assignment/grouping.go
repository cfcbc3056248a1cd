package assignment

import (
	"sort"
	"strings"

	"github.com/erazemk/zimmet/internal/model"
)

// GroupPending groups the pending assignments by personnel. Assignments in
// any other status are ignored.
func GroupPending(assignments []model.Assignment) []model.PendingGroup {
	pending := make([]model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Status == model.StatusPending {
			pending = append(pending, a)
		}
	}
	return GroupByPersonnel(pending)
}

// GroupByPersonnel groups assignments by personnel. Groups are ordered by
// personnel name then id, members by assignment date then id.
func GroupByPersonnel(assignments []model.Assignment) []model.PersonnelGroup {
	byPerson := make(map[int64]*model.PersonnelGroup)
	var order []int64

	for _, a := range assignments {
		g, ok := byPerson[a.PersonnelID]
		if !ok {
			p := model.Personnel{ID: a.PersonnelID}
			if a.Personnel != nil {
				p = *a.Personnel
			}
			g = &model.PersonnelGroup{Personnel: p}
			byPerson[a.PersonnelID] = g
			order = append(order, a.PersonnelID)
		}
		g.Assignments = append(g.Assignments, a)
	}

	groups := make([]model.PersonnelGroup, 0, len(order))
	for _, id := range order {
		g := byPerson[id]
		sort.SliceStable(g.Assignments, func(i, j int) bool {
			return lessByDate(g.Assignments[i], g.Assignments[j])
		})
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		ni := strings.ToLower(groups[i].Personnel.Name)
		nj := strings.ToLower(groups[j].Personnel.Name)
		if ni != nj {
			return ni < nj
		}
		return groups[i].Personnel.ID < groups[j].Personnel.ID
	})
	return groups
}

func lessByDate(a, b model.Assignment) bool {
	if !a.AssignmentDate.Time().Equal(b.AssignmentDate.Time()) {
		return a.AssignmentDate.Before(b.AssignmentDate)
	}
	return a.ID < b.ID
}
