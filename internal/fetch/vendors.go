package fetch

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Vendor is a third-party online scheduling product embedded in a page.
type Vendor string

// Known scheduling vendors
const (
	VendorCalendly    Vendor = "calendly"
	VendorAcuity      Vendor = "acuity"
	VendorSquarespace Vendor = "squarespace_scheduling"
	VendorSquare      Vendor = "square_appointments"
	VendorZocdoc      Vendor = "zocdoc"
	VendorSetmore     Vendor = "setmore"
	VendorNexHealth   Vendor = "nexhealth"
	VendorLocalMed    Vendor = "localmed"
	VendorVagaro      Vendor = "vagaro"
	VendorMindbody    Vendor = "mindbody"
	VendorUnknown     Vendor = "unknown"
)

// vendorHosts maps host fragments to vendors. Order matters: the first match wins.
var vendorHosts = []struct {
	fragment string
	vendor   Vendor
}{
	{"calendly.com", VendorCalendly},
	{"acuityscheduling.com", VendorAcuity},
	{"as.me", VendorAcuity},
	{"squarespacescheduling.com", VendorSquarespace},
	{"squareup.com/appointments", VendorSquare},
	{"book.squareup.com", VendorSquare},
	{"zocdoc.com", VendorZocdoc},
	{"setmore.com", VendorSetmore},
	{"nexhealth.com", VendorNexHealth},
	{"localmed.com", VendorLocalMed},
	{"vagaro.com", VendorVagaro},
	{"mindbodyonline.com", VendorMindbody},
}

// DetectVendor identifies a scheduling vendor from a URL.
func DetectVendor(urlStr string) Vendor {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil || parsed.Host == "" {
		return VendorUnknown
	}
	target := strings.ToLower(parsed.Host + parsed.Path)
	host := strings.ToLower(parsed.Host)
	for _, vh := range vendorHosts {
		if strings.Contains(vh.fragment, "/") {
			if strings.Contains(target, vh.fragment) {
				return vh.vendor
			}
			continue
		}
		if host == vh.fragment || strings.HasSuffix(host, "."+vh.fragment) {
			return vh.vendor
		}
	}
	return VendorUnknown
}

// DetectVendors returns the sorted, de-duplicated scheduling vendors referenced
// by iframes, scripts and links in an HTML page.
func DetectVendors(html string) []Vendor {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[Vendor]bool)
	doc.Find("iframe[src], script[src], a[href], link[href]").Each(func(_ int, s *goquery.Selection) {
		ref := s.AttrOr("src", s.AttrOr("href", ""))
		if strings.HasPrefix(ref, "//") {
			ref = "https:" + ref
		}
		if v := DetectVendor(ref); v != VendorUnknown {
			seen[v] = true
		}
	})

	vendors := make([]Vendor, 0, len(seen))
	for v := range seen {
		vendors = append(vendors, v)
	}
	sort.Slice(vendors, func(i, j int) bool { return vendors[i] < vendors[j] })
	return vendors
}
