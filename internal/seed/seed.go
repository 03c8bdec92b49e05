// Package seed holds the starter records used when neither the remote backend
// nor local storage has any data.
package seed

import (
	"time"

	"tanepro-b2b/internal/domain"
)

// Account is a demo user profile with its initial password
type Account struct {
	Profile  domain.UserProfile
	Password string
}

var accounts = []Account{
	{domain.UserProfile{ID: "1", Name: "Admin Kullanıcı", Email: "admin@tanepro.com", Role: domain.RoleAdmin, Phone: "+90 555 123 4567", TabdkNo: "ADM001", Address: "İstanbul, Türkiye"}, "admin123"},
	{domain.UserProfile{ID: "2", Name: "Premium İçecek Tedarikçisi", Email: "supplier@tanepro.com", Role: domain.RoleSupplier, Phone: "+90 555 234 5678", TabdkNo: "SUP001", Address: "Ankara, Türkiye"}, "supplier123"},
	{domain.UserProfile{ID: "4", Name: "Elit Alkol Distribütörü", Email: "elit@tanepro.com", Role: domain.RoleSupplier, Phone: "+90 555 456 7890", TabdkNo: "SUP002", Address: "İstanbul, Türkiye"}, "elit123"},
	{domain.UserProfile{ID: "5", Name: "Anadolu İçecek A.Ş.", Email: "anadolu@tanepro.com", Role: domain.RoleSupplier, Phone: "+90 555 567 8901", TabdkNo: "SUP003", Address: "Bursa, Türkiye"}, "anadolu123"},
	{domain.UserProfile{ID: "6", Name: "Marmara Şarap Evi", Email: "marmara@tanepro.com", Role: domain.RoleSupplier, Phone: "+90 555 678 9012", TabdkNo: "SUP004", Address: "Tekirdağ, Türkiye"}, "marmara123"},
	{domain.UserProfile{ID: "3", Name: "Müşteri Firma", Email: "customer@tanepro.com", Role: domain.RoleCustomer, Phone: "+90 555 345 6789", TabdkNo: "CUS001", Address: "İzmir, Türkiye"}, "customer123"},
	{domain.UserProfile{ID: "7", Name: "Lüks Restoran Zinciri", Email: "luxury@tanepro.com", Role: domain.RoleCustomer, Phone: "+90 555 789 0123", TabdkNo: "CUS002", Address: "Antalya, Türkiye"}, "luxury123"},
	{domain.UserProfile{ID: "8", Name: "Metro Market A.Ş.", Email: "metro@tanepro.com", Role: domain.RoleCustomer, Phone: "+90 555 890 1234", TabdkNo: "CUS003", Address: "İstanbul, Türkiye"}, "metro123"},
	{domain.UserProfile{ID: "9", Name: "Ege Otel Grubu", Email: "ege@tanepro.com", Role: domain.RoleCustomer, Phone: "+90 555 901 2345", TabdkNo: "CUS004", Address: "Muğla, Türkiye"}, "ege123"},
	{domain.UserProfile{ID: "10", Name: "Karadeniz Bar & Restoran", Email: "karadeniz@tanepro.com", Role: domain.RoleCustomer, Phone: "+90 555 012 3456", TabdkNo: "CUS005", Address: "Trabzon, Türkiye"}, "karadeniz123"},
}

var categories = []domain.Category{
	{ID: "5", Name: "Bira", Description: "Çeşitli bira türleri"},
	{ID: "6", Name: "Şarap", Description: "Kırmızı, beyaz ve roze şaraplar"},
	{ID: "7", Name: "Viski", Description: "Scotch, Bourbon, Irish ve diğer viskiler"},
	{ID: "8", Name: "Rakı", Description: "Türk anasonlu alkollü içki"},
	{ID: "9", Name: "Votka", Description: "Saf ve aromalı votka çeşitleri"},
	{ID: "10", Name: "Cin", Description: "Çeşitli botaniklerle tatlandırılmış cinler"},
	{ID: "11", Name: "Tekila", Description: "Mavi agave bitkisinden yapılan tekila"},
	{ID: "12", Name: "Konyak", Description: "Fransız konyakları ve brendiler"},
	{ID: "13", Name: "Likör", Description: "Farklı tatlarda likörler"},
	{ID: "14", Name: "Rom", Description: "Beyaz, koyu ve altın romlar"},
	{ID: "15", Name: "Şampanya", Description: "Köpüklü şaraplar ve şampanyalar"},
}

// Accounts returns the demo accounts stamped with createdAt
func Accounts(createdAt time.Time) []Account {
	out := make([]Account, len(accounts))
	for i, a := range accounts {
		a.Profile.CreatedAt = createdAt
		out[i] = a
	}
	return out
}

// Categories returns the starter beverage categories
func Categories(createdAt time.Time) []domain.Category {
	out := make([]domain.Category, len(categories))
	for i, c := range categories {
		c.CreatedAt = createdAt
		out[i] = c
	}
	return out
}

// Suppliers returns the party records of the demo supplier accounts
func Suppliers(createdAt time.Time) []domain.Party {
	return parties(domain.RoleSupplier, createdAt)
}

// Customers returns the party records of the demo customer accounts
func Customers(createdAt time.Time) []domain.Party {
	return parties(domain.RoleCustomer, createdAt)
}

func parties(role domain.Role, createdAt time.Time) []domain.Party {
	var out []domain.Party
	for _, a := range accounts {
		if a.Profile.Role == role {
			p := a.Profile.Party()
			p.CreatedAt = createdAt
			out = append(out, p)
		}
	}
	return out
}
