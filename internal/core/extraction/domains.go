package extraction

import "strings"

// Domain 已知食譜網站
type Domain struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

var supportedDomains = []Domain{
	{Domain: "allrecipes.com", Name: "Allrecipes"},
	{Domain: "foodnetwork.com", Name: "Food Network"},
	{Domain: "bbcgoodfood.com", Name: "BBC Good Food"},
	{Domain: "seriouseats.com", Name: "Serious Eats"},
	{Domain: "bonappetit.com", Name: "Bon Appétit"},
	{Domain: "epicurious.com", Name: "Epicurious"},
	{Domain: "simplyrecipes.com", Name: "Simply Recipes"},
	{Domain: "tasty.co", Name: "Tasty"},
	{Domain: "delish.com", Name: "Delish"},
	{Domain: "cooking.nytimes.com", Name: "NYT Cooking"},
	{Domain: "food.com", Name: "Food.com"},
	{Domain: "budgetbytes.com", Name: "Budget Bytes"},
	{Domain: "thekitchn.com", Name: "The Kitchn"},
	{Domain: "minimalistbaker.com", Name: "Minimalist Baker"},
	{Domain: "halfbakedharvest.com", Name: "Half Baked Harvest"},
}

// SupportedDomains 返回已知食譜網站列表
func SupportedDomains() []Domain {
	out := make([]Domain, len(supportedDomains))
	copy(out, supportedDomains)
	return out
}

// IsSupportedDomain 以後綴比對主機名稱，子網域也算
func IsSupportedDomain(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range supportedDomains {
		if host == d.Domain || strings.HasSuffix(host, "."+d.Domain) {
			return true
		}
	}
	return false
}
