package feed

import (
	"encoding/xml"
)

const googleNamespace = "http://base.google.com/ns/1.0"

type Channel struct {
	Title       string
	Link        string
	Description string
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	XMLNSG  string     `xml:"xmlns:g,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	ID                    string `xml:"g:id"`
	Title                 string `xml:"g:title"`
	Description           string `xml:"g:description"`
	Link                  string `xml:"g:link"`
	ImageLink             string `xml:"g:image_link,omitempty"`
	Price                 string `xml:"g:price"`
	Availability          string `xml:"g:availability"`
	Condition             string `xml:"g:condition"`
	Brand                 string `xml:"g:brand,omitempty"`
	GTIN                  string `xml:"g:gtin,omitempty"`
	IdentifierExists      string `xml:"g:identifier_exists,omitempty"`
	GoogleProductCategory string `xml:"g:google_product_category"`
	ProductType           string `xml:"g:product_type,omitempty"`
}

// RenderRSS writes items as an RSS 2.0 document using the Google Merchant
// g: namespace.
func RenderRSS(ch Channel, items []Item) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		XMLNSG:  googleNamespace,
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        ch.Link,
			Description: ch.Description,
			Items:       make([]rssItem, 0, len(items)),
		},
	}
	for _, it := range items {
		ri := rssItem{
			ID:                    it.ID,
			Title:                 it.Title,
			Description:           it.Description,
			Link:                  it.Link,
			ImageLink:             it.ImageLink,
			Price:                 it.Price,
			Availability:          it.Availability,
			Condition:             it.Condition,
			Brand:                 it.Brand,
			GTIN:                  it.GTIN,
			GoogleProductCategory: GoogleCategoryWine,
			ProductType:           it.ProductType,
		}
		if it.GTIN == "" {
			ri.IdentifierExists = "no"
		}
		doc.Channel.Items = append(doc.Channel.Items, ri)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
