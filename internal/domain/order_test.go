package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{"pending to accepted", JobStatusPending, JobStatusAccepted, true},
		{"pending to rejected", JobStatusPending, JobStatusRejected, true},
		{"pending to canceled", JobStatusPending, JobStatusCanceled, true},
		{"pending to on the way", JobStatusPending, JobStatusOnTheWay, false},
		{"pending to completed", JobStatusPending, JobStatusCompleted, false},
		{"accepted to on the way", JobStatusAccepted, JobStatusOnTheWay, true},
		{"accepted to completed", JobStatusAccepted, JobStatusCompleted, true},
		{"accepted to canceled", JobStatusAccepted, JobStatusCanceled, true},
		{"accepted to rejected", JobStatusAccepted, JobStatusRejected, false},
		{"accepted back to pending", JobStatusAccepted, JobStatusPending, false},
		{"on the way to completed", JobStatusOnTheWay, JobStatusCompleted, true},
		{"on the way to canceled", JobStatusOnTheWay, JobStatusCanceled, true},
		{"on the way back to accepted", JobStatusOnTheWay, JobStatusAccepted, false},
		{"completed is terminal", JobStatusCompleted, JobStatusCanceled, false},
		{"rejected is terminal", JobStatusRejected, JobStatusAccepted, false},
		{"canceled is terminal", JobStatusCanceled, JobStatusPending, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []JobStatus{JobStatusCompleted, JobStatusRejected, JobStatusCanceled}
	all := []JobStatus{
		JobStatusPending, JobStatusAccepted, JobStatusOnTheWay,
		JobStatusCompleted, JobStatusRejected, JobStatusCanceled,
	}
	for _, from := range terminals {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal status %s allows transition to %s", from, to)
			}
		}
	}
}

func TestOrderInvolvesUser(t *testing.T) {
	repairman := "repairman-1"
	order := &Order{RequesterID: "customer-1", RepairmanID: &repairman}

	if !order.InvolvesUser("customer-1") {
		t.Error("requester should be a party to the order")
	}
	if !order.InvolvesUser("repairman-1") {
		t.Error("assigned repairman should be a party to the order")
	}
	if order.InvolvesUser("stranger") {
		t.Error("unrelated user should not be a party to the order")
	}

	unassigned := &Order{RequesterID: "customer-1"}
	if unassigned.InvolvesUser("repairman-1") {
		t.Error("no repairman is a party before assignment")
	}
}
