package render

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Inline styles only: mail clients ignore linked stylesheets.
const (
	styleBody      = "margin:0;padding:0;background-color:#f4f1ec;font-family:Georgia,'Times New Roman',serif;color:#2f2a25;"
	styleContainer = "max-width:600px;margin:0 auto;background-color:#ffffff;padding:32px;border:1px solid #e6dfd4;"
	styleHeader    = "margin:0 0 24px 0;font-size:22px;font-weight:normal;letter-spacing:1px;text-transform:uppercase;color:#6b5b4b;text-align:center;"
	styleHeading   = "margin:0 0 16px 0;font-size:20px;font-weight:normal;color:#2f2a25;"
	styleParagraph = "margin:0 0 16px 0;font-size:16px;line-height:1.6;"
	styleTable     = "width:100%;border-collapse:collapse;margin:0 0 24px 0;font-family:Arial,Helvetica,sans-serif;font-size:14px;"
	styleLabelCell = "padding:8px 12px;border-bottom:1px solid #eee6da;font-weight:bold;width:30%;vertical-align:top;color:#6b5b4b;"
	styleValueCell = "padding:8px 12px;border-bottom:1px solid #eee6da;vertical-align:top;white-space:pre-wrap;"
	styleButton    = "display:inline-block;padding:10px 20px;background-color:#6b5b4b;color:#ffffff;text-decoration:none;font-family:Arial,Helvetica,sans-serif;font-size:14px;"
	styleFooter    = "margin:24px 0 0 0;font-size:12px;color:#8c7f72;text-align:center;"
)

type clientData struct {
	studio    string
	signature string
	firstName string
	label     string
	eventDate string
}

type row struct {
	label string
	value string
}

type adminData struct {
	heading string
	rows    []row
	email   string
}

// writeAll writes parts to w, stopping at the first error.
func writeAll(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func layout(studio string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := writeAll(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, templ.EscapeString(studio), `</title></head>`,
			`<body style="`, styleBody, `"><div style="`, styleContainer, `">`,
		)
		if err != nil {
			return err
		}
		if studio != "" {
			if err := writeAll(w, `<h1 style="`, styleHeader, `">`, templ.EscapeString(studio), `</h1>`); err != nil {
				return err
			}
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return writeAll(w, `</div></body></html>`)
	})
}

func clientBody(d clientData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		greeting := "Hello,"
		if d.firstName != "" {
			greeting = "Dear " + templ.EscapeString(d.firstName) + ","
		}

		var inquiry strings.Builder
		inquiry.WriteString("Thank you for reaching out about ")
		inquiry.WriteString(templ.EscapeString(d.label))
		if d.eventDate != "" {
			inquiry.WriteString(" for your event on ")
			inquiry.WriteString(templ.EscapeString(d.eventDate))
		}
		inquiry.WriteString(". We have received your inquiry and will be in touch within 24 to 48 hours to talk through your plans.")

		err := writeAll(w,
			`<p style="`, styleParagraph, `">`, greeting, `</p>`,
			`<p style="`, styleParagraph, `">`, inquiry.String(), `</p>`,
			`<p style="`, styleParagraph, `">In the meantime, feel free to reply to this email with any details you would like us to know.</p>`,
		)
		if err != nil {
			return err
		}

		closing := "Warm regards,"
		if d.signature != "" {
			closing += "<br>" + templ.EscapeString(d.signature)
		}
		if err := writeAll(w, `<p style="`, styleParagraph, `">`, closing, `</p>`); err != nil {
			return err
		}
		if d.studio != "" {
			return writeAll(w, `<p style="`, styleFooter, `">`, templ.EscapeString(d.studio), `</p>`)
		}
		return nil
	})
}

func adminBody(d adminData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		err := writeAll(w,
			`<h2 style="`, styleHeading, `">`, templ.EscapeString(d.heading), `</h2>`,
			`<table role="presentation" style="`, styleTable, `">`,
		)
		if err != nil {
			return err
		}
		for _, r := range d.rows {
			err := writeAll(w,
				`<tr><td style="`, styleLabelCell, `">`, templ.EscapeString(r.label), `</td>`,
				`<td style="`, styleValueCell, `">`, templ.EscapeString(r.value), `</td></tr>`,
			)
			if err != nil {
				return err
			}
		}
		if err := writeAll(w, `</table>`); err != nil {
			return err
		}
		if d.email != "" {
			href := templ.EscapeString("mailto:" + d.email)
			return writeAll(w, `<p style="`, styleParagraph, `"><a href="`, href, `" style="`, styleButton, `">Reply to lead</a></p>`)
		}
		return nil
	})
}
