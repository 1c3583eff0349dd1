package model

// Driver is read-only reference data.
type Driver struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	DriverNumber string `json:"driver_number" yaml:"driver_number"`
}

// Bus is read-only reference data. Number identifies the physical vehicle
// across organizations.
type Bus struct {
	ID      string `json:"id" yaml:"id"`
	Number  string `json:"number" yaml:"number"`
	Company string `json:"company" yaml:"company"`
}

// Route carries the daily operating window a schedule should fit in.
type Route struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	OperationStartTime string `json:"operation_start_time" yaml:"operation_start_time"`
	OperationEndTime   string `json:"operation_end_time" yaml:"operation_end_time"`
}

// ExternalBusAssignment records the use of a bus by a different organization.
type ExternalBusAssignment struct {
	BusNumber string `json:"bus_number" yaml:"bus_number"`
	Date      Date   `json:"date" yaml:"date"`
	Company   string `json:"company" yaml:"company"`
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`
}

// Reference is a snapshot of the lookup tables used during one validation pass.
type Reference struct {
	Drivers   []Driver                `json:"drivers" yaml:"drivers"`
	Buses     []Bus                   `json:"buses" yaml:"buses"`
	Routes    []Route                 `json:"routes" yaml:"routes"`
	Externals []ExternalBusAssignment `json:"external_assignments" yaml:"external_assignments"`
}

func (r Reference) Driver(id string) (Driver, bool) {
	for _, d := range r.Drivers {
		if d.ID == id {
			return d, true
		}
	}
	return Driver{}, false
}

func (r Reference) Bus(id string) (Bus, bool) {
	for _, b := range r.Buses {
		if b.ID == id {
			return b, true
		}
	}
	return Bus{}, false
}

func (r Reference) Route(id string) (Route, bool) {
	for _, rt := range r.Routes {
		if rt.ID == id {
			return rt, true
		}
	}
	return Route{}, false
}
