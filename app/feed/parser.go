package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/newsletter-digest/app/email"
)

const untitled = "Untitled"

type Parser struct {
	gofeedParser *gofeed.Parser
	now          func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		now:          time.Now,
	}
}

func (p *Parser) Run(data []byte) ([]Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:       cmp.Or(item.GUID, item.Link),
		Title:      cmp.Or(strings.TrimSpace(item.Title), untitled),
		Link:       item.Link,
		Content:    cmp.Or(item.Content, item.Description),
		Snippet:    email.HTMLToText(cmp.Or(item.Description, item.Content)),
		Authors:    p.extractAuthors(item),
		Categories: item.Categories,
	}

	switch {
	case item.PublishedParsed != nil:
		normalized.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		normalized.PublishedAt = item.UpdatedParsed.UTC()
	default:
		normalized.PublishedAt = p.now().UTC()
	}

	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		normalized.Creator = item.DublinCoreExt.Creator[0]
	} else if item.Author != nil {
		normalized.Creator = item.Author.Name
	}

	return normalized
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				authorStr := p.formatAuthor(author.Name, author.Email)
				if authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		authorStr := p.formatAuthor(item.Author.Name, item.Author.Email)
		if authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func (p *Parser) formatAuthor(name, address string) string {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	if name != "" && address != "" {
		return fmt.Sprintf("%s (%s)", address, name)
	} else if name != "" {
		return name
	} else if address != "" {
		return address
	}

	return ""
}
