package arv

// Result separates the items of a batch operation that succeeded from
// those that failed. One item's failure never aborts its siblings;
// whole-batch precondition violations are returned as an error instead
// and leave the store untouched.
type Result struct {
	Succeeded []Success
	Failed    []Failure
}

// Success describes one item that completed.
type Success struct {
	ID     int64
	Item   string
	Detail string
}

// Failure describes one item that did not complete, with the
// underlying reason.
type Failure struct {
	ID     int64
	Item   string
	Reason string
}

func (r *Result) ok(id int64, item, detail string) {
	r.Succeeded = append(r.Succeeded, Success{ID: id, Item: item, Detail: detail})
}

func (r *Result) fail(id int64, item, reason string) {
	r.Failed = append(r.Failed, Failure{ID: id, Item: item, Reason: reason})
}
