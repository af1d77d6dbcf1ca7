package api

// Header sets mimic what a desktop browser sends to each host. Host,
// Accept-Encoding and TE are left to net/http: the transport derives Host from
// the URL and only decompresses bodies when it negotiated the encoding itself.

// OracleHeaders are sent to the price oracle.
var OracleHeaders = map[string]string{
	"Accept": "application/json",
}

// ListingHeaders are sent to the static listing host (an XHR from the site).
var ListingHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.5",
	"Referer":         "https://coinmarketcap.com/",
	"Origin":          "https://coinmarketcap.com",
	"Sec-GPC":         "1",
	"Connection":      "keep-alive",
	"Sec-Fetch-Dest":  "empty",
	"Sec-Fetch-Mode":  "cors",
	"Sec-Fetch-Site":  "same-site",
}

// DetailHeaders are sent to the detail API (a top-level navigation).
var DetailHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Sec-GPC":                   "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "cross-site",
	"Priority":                  "u=0, i",
}
