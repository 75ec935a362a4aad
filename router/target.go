package router

// MsgTarget selects where a rendered line or tab mutation goes (§4.6). A
// target only names tabs; addressing a tab through it does not create that
// tab. The router creates the tabs it needs (ensureChanTab, ensureUserTab,
// ensureMentionsTab) before addressing them, and a UI can be handed a
// target whose tab does not exist.
type MsgTarget interface {
	isMsgTarget()
	ServKey() string
}

type servKeyed struct{ servKey string }

func (s servKeyed) ServKey() string { return s.servKey }

// Server addresses the server tab itself.
type Server struct{ servKeyed }

// Channel addresses a channel tab.
type Channel struct {
	servKeyed
	Chan string
}

// User addresses a direct-message tab.
type User struct {
	servKeyed
	Nick string
}

// AllServTabs addresses the server tab and every channel/user tab that
// belongs to it (§4.6 ERROR handling, reconnect/disconnect notices).
type AllServTabs struct{ servKeyed }

// AllUserTabs addresses every tab on a server where nick appears: its own
// User tab if any, plus every channel tab it is a member of (§4.6 QUIT/NICK
// handling).
type AllUserTabs struct {
	servKeyed
	Nick string
}

// CurrentTab addresses whatever tab is presently active in the UI.
type CurrentTab struct{}

func (Server) isMsgTarget()      {}
func (Channel) isMsgTarget()     {}
func (User) isMsgTarget()        {}
func (AllServTabs) isMsgTarget() {}
func (AllUserTabs) isMsgTarget() {}
func (CurrentTab) isMsgTarget()  {}

func (CurrentTab) ServKey() string { return "" }

// ToServer builds a Server target.
func ToServer(servKey string) Server { return Server{servKeyed{servKey}} }

// ToChannel builds a Channel target.
func ToChannel(servKey, channel string) Channel { return Channel{servKeyed{servKey}, channel} }

// ToUser builds a User target.
func ToUser(servKey, nick string) User { return User{servKeyed{servKey}, nick} }

// ToAllServTabs builds an AllServTabs target.
func ToAllServTabs(servKey string) AllServTabs { return AllServTabs{servKeyed{servKey}} }

// ToAllUserTabs builds an AllUserTabs target.
func ToAllUserTabs(servKey, nick string) AllUserTabs {
	return AllUserTabs{servKeyed{servKey}, nick}
}
