package api

type Result struct {
	State    string   `json:"state"`
	Loop     bool     `json:"loop"`
	Affected bool     `json:"affected"`
	Members  []string `json:"members,omitempty"`
}

type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Color  string `json:"color"`
	Weight int    `json:"weight"`
	Style  string `json:"style"`
}

type Graph struct {
	Nodes   []string `json:"nodes"`
	Edges   []Edge   `json:"edges"`
	Added   []Edge   `json:"added"`
	Removed []Edge   `json:"removed"`
}

type InterfaceChange struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RouteChange struct {
	DestinationAddress string `json:"destinationAddress"`
	NextHop            string `json:"nextHop"`
	State              string `json:"state"`
}

type Change struct {
	Kind       string            `json:"kind"`
	Hosts      []string          `json:"hosts"`
	Interfaces []InterfaceChange `json:"interfaces,omitempty"`
	Routes     []RouteChange     `json:"routes,omitempty"`
}

type Attempt struct {
	Strategy string   `json:"strategy"`
	Changes  []Change `json:"changes"`
	Fixed    bool     `json:"fixed"`
	Err      string   `json:"err,omitempty"`
}
