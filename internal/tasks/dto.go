package tasks

// ScheduleRequest is the payload for putting a task on the calendar.
type ScheduleRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Category string `json:"category" validate:"required,oneof=Planting Harvesting Maintenance Logistics"`
}

// SetStatusRequest moves a task between progress states.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof='To Do' 'In Progress' 'Done'"`
}

// ListResponse wraps the tasks of a calendar window.
type ListResponse struct {
	Tasks []Task `json:"tasks"`
}
