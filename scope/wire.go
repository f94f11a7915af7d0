package scope

// Names of the calls and broadcast events that scoped clients exchange with
// the remote store over a [channel.Channel]. Channel implementations route
// requests by these names; they carry no other protocol knowledge.
const (
	// MethodFetchAll requests the full contents of one scope. The response is
	// a JSON array of [key, value] pairs.
	MethodFetchAll = "fetchAll"

	// MethodSubmitUpdate applies an update batch to one scope. The response
	// carries no payload.
	MethodSubmitUpdate = "submitUpdate"

	// EventSharedScopeChanged is the broadcast event carrying change
	// notifications for the shared scope.
	EventSharedScopeChanged = "onSharedScopeChanged"
)

// request is the wire shape of every outbound call.
//
// The workspace field routes the request to the correct physical store on the
// remote side; it is omitted for the shared scope. The insert and delete
// fields are only used by [MethodSubmitUpdate] and are omitted when empty.
type request struct {
	Workspace string   `json:"workspace,omitempty"`
	Insert    []Item   `json:"insert,omitempty"`
	Delete    []string `json:"delete,omitempty"`
}

// notification is the wire shape of a shared-scope change broadcast.
type notification struct {
	Changed []Item   `json:"changed,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}
