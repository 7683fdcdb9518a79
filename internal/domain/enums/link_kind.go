package enums

type LinkKind string

const (
	LinkKindNone      LinkKind = ""
	LinkKindURL       LinkKind = "url"
	LinkKindShortLink LinkKind = "short_link"
	LinkKindMention   LinkKind = "mention"
	LinkKindDomain    LinkKind = "domain"
	LinkKindIPv4      LinkKind = "ipv4"
)
