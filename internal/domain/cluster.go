package domain

// ClusterInfo describes the kubeconfig context kubectl will talk to.
type ClusterInfo struct {
	Kubeconfig string `json:"kubeconfig"`
	Context    string `json:"context"`
	Cluster    string `json:"cluster"`
	Server     string `json:"server"`
	Namespace  string `json:"namespace"`
	User       string `json:"user,omitempty"`
}

// DisplayNamespace returns the namespace kubectl falls back to.
func (c ClusterInfo) DisplayNamespace() string {
	if c.Namespace == "" {
		return "default"
	}
	return c.Namespace
}
