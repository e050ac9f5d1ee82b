package model

// Relevance is the three-valued deal-relatedness verdict carried on every
// exported record. Unknown means the page could not be fetched at all.
type Relevance string

const (
	RelevanceYes     Relevance = "Yes"
	RelevanceNo      Relevance = "No"
	RelevanceUnknown Relevance = "Unknown"
)

// Role identifies a named entity participating in a deal.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSeller   Role = "seller"
	RoleCompany  Role = "company"
	RoleInvestor Role = "investor"
	RoleDivestor Role = "divestor"
	RoleTarget   Role = "target"
)

// Roles lists every deal role in export-column order. Enrichment, company
// registration, and export all iterate this slice so the name/website
// pairing is enforced in exactly one place.
var Roles = []Role{RoleBuyer, RoleSeller, RoleCompany, RoleInvestor, RoleDivestor, RoleTarget}

// DealRecord is the structured result for one article URL. Created once per
// URL per run and never mutated after it reaches the result writer.
type DealRecord struct {
	ArticleTitle  string    `json:"article_title"`
	ArticleLink   string    `json:"article_link"`
	IsDealRelated Relevance `json:"is_deal_related"`

	DealType         string `json:"deal_type"`
	AnnouncementDate string `json:"announcement_date"`

	Buyer           string `json:"buyer"`
	BuyerWebsite    string `json:"buyer_website"`
	Seller          string `json:"seller"`
	SellerWebsite   string `json:"seller_website"`
	Company         string `json:"company"`
	CompanyWebsite  string `json:"company_website"`
	Investor        string `json:"investor"`
	InvestorWebsite string `json:"investor_website"`
	Divestor        string `json:"divestor"`
	DivestorWebsite string `json:"divestor_website"`
	Target          string `json:"target"`
	TargetWebsite   string `json:"target_website"`

	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	StakePercentage    string `json:"stake_percentage"`
	CountriesInvolved  string `json:"countries_involved"`
	Advisors           string `json:"advisors"`
	StrategicRationale string `json:"strategic_rationale"`
	AdditionalNotes    string `json:"additional_notes"`
}

// RoleName returns the entity name stored for a role.
func (r *DealRecord) RoleName(role Role) string {
	switch role {
	case RoleBuyer:
		return r.Buyer
	case RoleSeller:
		return r.Seller
	case RoleCompany:
		return r.Company
	case RoleInvestor:
		return r.Investor
	case RoleDivestor:
		return r.Divestor
	case RoleTarget:
		return r.Target
	}
	return ""
}

// RoleWebsite returns the website stored for a role.
func (r *DealRecord) RoleWebsite(role Role) string {
	switch role {
	case RoleBuyer:
		return r.BuyerWebsite
	case RoleSeller:
		return r.SellerWebsite
	case RoleCompany:
		return r.CompanyWebsite
	case RoleInvestor:
		return r.InvestorWebsite
	case RoleDivestor:
		return r.DivestorWebsite
	case RoleTarget:
		return r.TargetWebsite
	}
	return ""
}

// SetRoleWebsite stores a website for a role. Websites are only ever set for
// roles whose name is non-empty, keeping the name/website pair invariant.
func (r *DealRecord) SetRoleWebsite(role Role, website string) {
	if r.RoleName(role) == "" {
		return
	}
	switch role {
	case RoleBuyer:
		r.BuyerWebsite = website
	case RoleSeller:
		r.SellerWebsite = website
	case RoleCompany:
		r.CompanyWebsite = website
	case RoleInvestor:
		r.InvestorWebsite = website
	case RoleDivestor:
		r.DivestorWebsite = website
	case RoleTarget:
		r.TargetWebsite = website
	}
}

// PresentRoles returns the roles whose name field is non-empty.
func (r *DealRecord) PresentRoles() []Role {
	var present []Role
	for _, role := range Roles {
		if r.RoleName(role) != "" {
			present = append(present, role)
		}
	}
	return present
}

// ExportColumns is the fixed, ordered header shared by the CSV log and the
// snapshot exports.
var ExportColumns = []string{
	"article_title", "article_link", "is_deal_related",
	"deal_type", "announcement_date",
	"buyer", "buyer_website",
	"seller", "seller_website",
	"company", "company_website",
	"investor", "investor_website",
	"divestor", "divestor_website",
	"target", "target_website",
	"amount", "currency", "stake_percentage",
	"countries_involved", "advisors", "strategic_rationale",
	"additional_notes",
}

// ExportRow flattens the record into ExportColumns order.
func (r *DealRecord) ExportRow() []string {
	return []string{
		r.ArticleTitle, r.ArticleLink, string(r.IsDealRelated),
		r.DealType, r.AnnouncementDate,
		r.Buyer, r.BuyerWebsite,
		r.Seller, r.SellerWebsite,
		r.Company, r.CompanyWebsite,
		r.Investor, r.InvestorWebsite,
		r.Divestor, r.DivestorWebsite,
		r.Target, r.TargetWebsite,
		r.Amount, r.Currency, r.StakePercentage,
		r.CountriesInvolved, r.Advisors, r.StrategicRationale,
		r.AdditionalNotes,
	}
}
