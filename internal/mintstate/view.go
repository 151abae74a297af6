package mintstate

// View is one of the six mutually exclusive presentations of the dapp.
type View string

const (
	ViewConnectWallet     View = "connect_wallet"
	ViewLoading           View = "loading"
	ViewStartPresale      View = "start_presale"
	ViewPresaleNotStarted View = "presale_not_started"
	ViewPresaleMint       View = "presale_mint"
	ViewPublicMint        View = "public_mint"
)

// Render maps s to its view. First match wins.
func Render(s State) View {
	switch {
	case !s.Connected:
		return ViewConnectWallet
	case s.Loading:
		return ViewLoading
	case s.IsOwner && !s.PresaleStarted:
		return ViewStartPresale
	case !s.PresaleStarted:
		return ViewPresaleNotStarted
	case !s.PresaleEnded:
		return ViewPresaleMint
	default:
		return ViewPublicMint
	}
}

// Presentation is the copy and control a view shows. Action is the dapp
// endpoint the control posts to, empty when the view has no control.
type Presentation struct {
	View   View   `json:"view"`
	Notice string `json:"notice,omitempty"`
	Button string `json:"button,omitempty"`
	Action string `json:"action,omitempty"`
}

var presentations = map[View]Presentation{
	ViewConnectWallet: {Button: "Connect your wallet", Action: "/dapp/connect"},
	ViewLoading:       {Button: "Loading..."},
	ViewStartPresale:  {Button: "Start Presale!", Action: "/dapp/presale/start"},
	ViewPresaleNotStarted: {
		Notice: "Presale hasnt started!",
	},
	ViewPresaleMint: {
		Notice: "Presale has started!!! If your address is whitelisted, Mint a Crypto Dev 🥳",
		Button: "Presale Mint 🚀",
		Action: "/dapp/presale/mint",
	},
	ViewPublicMint: {Button: "Public Mint 🚀", Action: "/dapp/mint"},
}

// Present returns the presentation for v.
func Present(v View) Presentation {
	p := presentations[v]
	p.View = v
	return p
}
