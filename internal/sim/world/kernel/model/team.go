package model

import "sort"

type Team struct {
	ID   string
	Name string

	Members map[string]bool // participant_id -> member
}

func NewTeam(id, name string) *Team {
	return &Team{ID: id, Name: name, Members: map[string]bool{}}
}

func (t *Team) Size() int {
	if t == nil {
		return 0
	}
	return len(t.Members)
}

func (t *Team) MemberIDs() []string {
	out := make([]string, 0, len(t.Members))
	for id := range t.Members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
