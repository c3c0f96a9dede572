// Package scripts injects the Google Analytics and AdSense tags into every
// rendered page.
package scripts

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"

	"vinreport-web/models"
)

const (
	GTagURL    = "https://www.googletagmanager.com/gtag/js"
	AdSenseURL = "https://pagead2.googlesyndication.com/pagead/js/adsbygoogle.js"

	analyticsScriptID = "ga-gtag"
	analyticsInitID   = "ga-init"
	adSenseScriptID   = "adsense-loader"

	injectedMarker = "thirdparty-scripts"
)

type Loader struct {
	trackingID      string
	adSenseClientID string
}

func NewLoader(trackingID, adSenseClientID string) *Loader {
	return &Loader{
		trackingID:      trackingID,
		adSenseClientID: adSenseClientID,
	}
}

func (l *Loader) AnalyticsEnabled() bool {
	return l.trackingID != ""
}

func (l *Loader) AdSenseEnabled() bool {
	return l.adSenseClientID != ""
}

// Inject appends the vendor scripts whose identifiers are configured. It
// only acts on the first call for a given document.
func (l *Loader) Inject(doc *models.Document) {
	if !doc.Once(injectedMarker) {
		return
	}

	if l.AnalyticsEnabled() {
		doc.AppendScript(models.Script{
			ID:    analyticsScriptID,
			Src:   GTagURL + "?" + url.Values{"id": []string{l.trackingID}}.Encode(),
			Async: true,
		})
		doc.AppendScript(models.Script{
			ID:     analyticsInitID,
			Inline: gtagBootstrap(l.trackingID),
		})
	}

	if l.AdSenseEnabled() {
		doc.AppendScript(models.Script{
			ID:          adSenseScriptID,
			Src:         AdSenseURL + "?" + url.Values{"client": []string{l.adSenseClientID}}.Encode(),
			Async:       true,
			CrossOrigin: "anonymous",
		})
	}
}

// gtagBootstrap sets up window.dataLayer and the global gtag function.
func gtagBootstrap(trackingID string) template.JS {
	id, _ := json.Marshal(trackingID)
	return template.JS(fmt.Sprintf(
		"window.dataLayer = window.dataLayer || [];"+
			"function gtag(){dataLayer.push(arguments);}"+
			"gtag('js', new Date());"+
			"gtag('config', %s);", id))
}
