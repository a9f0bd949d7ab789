package kernel

// UserID is the provider-assigned account identifier. Opaque and stable for
// the lifetime of the account.
type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// RoleID is the provider-assigned role identifier. Roles are addressed by
// name when assigning; the ID is informational.
type RoleID string

func NewRoleID(id string) RoleID { return RoleID(id) }
func (r RoleID) String() string  { return string(r) }
func (r RoleID) IsEmpty() bool   { return string(r) == "" }

// CorrelationID stitches together the start and terminal log events of a
// single inbound operation. Generated per call, never reused across retries.
type CorrelationID string

func (c CorrelationID) String() string { return string(c) }
func (c CorrelationID) IsEmpty() bool  { return string(c) == "" }
