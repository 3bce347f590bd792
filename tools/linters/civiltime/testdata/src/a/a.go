package a

import "time"

func bad() {
	_ = time.Now() // want "time.Now\\(\\) should be followed by .UTC\\(\\)"
}

func good() {
	_ = time.Now().UTC()
}

func chainingGood() {
	_ = time.Now().UTC().Format(time.DateOnly)
}

func dueDateGood() time.Time {
	return time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
}

func dueDateBad() time.Time {
	return time.Date(2024, time.March, 31, 0, 0, 0, 0, time.Local) // want "time.Local makes civil dates depend on the host zone"
}

func toLocal(t time.Time) time.Time {
	return t.Local() // want "Time.Local\\(\\) converts to the host zone"
}

func keepsLocation(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, t.Location())
}

type clock struct{}

func (clock) Now() time.Time { return time.Time{} }

func otherNow() {
	var c clock
	_ = c.Now()
}

func nolintGeneral() {
	//nolint
	_ = time.Now()
}

func nolintSpecific() {
	start := time.Now() //nolint:civiltime
	_ = time.Since(start)
}

func nolintList() {
	_ = time.Now() //nolint:errcheck,civiltime
}

func nolintOtherLinter() {
	_ = time.Now() //nolint:otherlinter // want "time.Now\\(\\) should be followed by .UTC\\(\\)"
}
