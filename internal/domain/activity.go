package domain

// Activity is a leaf record attached to a department.
type Activity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	FlowchartURL string `json:"flowchartURL"`
}
