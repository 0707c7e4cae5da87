// Package views renders the HTML pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// IndexProps configures the index page.
type IndexProps struct {
	MaxFileSize int64
	MaxFiles    int
	Functions   []string
}

// Index is the single-page UI with one panel per tool.
func Index(p IndexProps) templ.Component {
	return Layout("File Operations",
		header(p),
		appendPanel(p),
		summarizePanel(p),
		reconcilePanel(),
		historyPanel(),
	)
}

// Layout wraps body components in the page shell.
func Layout(title string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>%s</title><style>%s</style></head><body><main>`,
			templ.EscapeString(title), pageCSS); err != nil {
			return err
		}
		for _, c := range body {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `</main><script>%s</script></body></html>`, pageJS)
		return err
	})
}

func header(p IndexProps) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<header><h1>File Operations</h1>`+
			`<p>Combine, summarize and compare CSV and Excel files. Up to %d files of %s each.</p></header>`,
			p.MaxFiles, templ.EscapeString(humanSize(p.MaxFileSize)))
		return err
	})
}

func appendPanel(p IndexProps) templ.Component {
	return panel("append", "Append Files",
		`<form data-endpoint="/api/append" enctype="multipart/form-data">`+
			`<label>Files <input type="file" name="files" accept=".csv,.xlsx,.xlsm" multiple required></label>`+
			`<button type="submit">Append</button></form>`)
}

func summarizePanel(p IndexProps) templ.Component {
	var opts strings.Builder
	for _, fn := range p.Functions {
		esc := templ.EscapeString(fn)
		fmt.Fprintf(&opts, `<option value="%s">%s</option>`, esc, esc)
	}
	return panel("summarize", "Summarize",
		`<form data-endpoint="/api/summarize" enctype="multipart/form-data">`+
			`<label>File <input type="file" name="file" accept=".csv,.xlsx,.xlsm"></label>`+
			`<label><input type="checkbox" name="use_combined" value="true"> Use appended data</label>`+
			`<label>Group by <input type="text" name="group_by" placeholder='["Region"]' required></label>`+
			`<label>Columns <input type="text" name="columns" placeholder='["Amount"]'></label>`+
			`<label>Operation <select name="operation">`+opts.String()+`</select></label>`+
			`<label><input type="checkbox" name="include_all" value="true"> Keep other columns</label>`+
			`<button type="submit">Summarize</button></form>`)
}

func reconcilePanel() templ.Component {
	return panel("reconcile", "Reconcile",
		`<form data-endpoint="/api/reconcile" enctype="multipart/form-data">`+
			`<label>Primary file <input type="file" name="primary" accept=".csv,.xlsx,.xlsm" required></label>`+
			`<label>Primary key <input type="text" name="primary_key" required></label>`+
			`<label>Secondary file <input type="file" name="secondary" accept=".csv,.xlsx,.xlsm" required></label>`+
			`<label>Secondary key <input type="text" name="secondary_key" required></label>`+
			`<button type="submit">Reconcile</button></form>`)
}

func historyPanel() templ.Component {
	return panel("history", "Recent Operations",
		`<button type="button" id="load-history">Refresh</button> `+
			`<button type="button" id="end-session">Start over</button>`)
}

// panel renders a titled section with trusted inner markup and an output
// area the page script fills in.
func panel(id, title, inner string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section id="%s"><h2>%s</h2>%s<div class="output"></div></section>`,
			templ.EscapeString(id), templ.EscapeString(title), inner)
		return err
	})
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#222}
main{max-width:960px;margin:0 auto;padding:1rem}
section{background:#fff;border:1px solid #ddd;border-radius:6px;padding:1rem;margin:1rem 0}
label{display:block;margin:.4rem 0}
table{border-collapse:collapse;margin-top:.5rem;font-size:.9rem}
th,td{border:1px solid #ccc;padding:.2rem .5rem}
.error{color:#a00}`

// pageJS posts each form and renders the JSON previews. Text goes through
// textContent, never innerHTML, so file contents cannot inject markup.
const pageJS = `
function el(tag, text){const e=document.createElement(tag);if(text!==undefined)e.textContent=text;return e;}
function renderTable(title, v){
  const box=el('div');box.appendChild(el('h3',title+' ('+v.shape[0]+' rows, '+v.shape[1]+' columns)'));
  const t=el('table');const hr=el('tr');v.columns.forEach(c=>hr.appendChild(el('th',c)));t.appendChild(hr);
  v.rows.forEach(r=>{const tr=el('tr');r.forEach(c=>tr.appendChild(el('td',c===null?'':String(c))));t.appendChild(tr);});
  box.appendChild(t);
  if(v.download){['xlsx','csv'].forEach(f=>{const a=el('a','Download '+f.toUpperCase());a.href=v.download+'?format='+f;box.appendChild(a);box.appendChild(document.createTextNode(' '));});}
  return box;
}
function show(out, body){
  out.replaceChildren();
  if(body.code){out.appendChild(el('p',body.error));out.firstChild.className='error';return;}
  if(body.result)out.appendChild(renderTable('Result',body.result));
  if(body.matched){out.appendChild(renderTable('Exact matches',body.matched));out.appendChild(renderTable('Only in primary',body.primary_only));out.appendChild(renderTable('Only in secondary',body.secondary_only));}
}
document.querySelectorAll('form[data-endpoint]').forEach(f=>f.addEventListener('submit',async ev=>{
  ev.preventDefault();
  const out=f.parentElement.querySelector('.output');
  const res=await fetch(f.dataset.endpoint,{method:'POST',body:new FormData(f)});
  show(out, await res.json());
}));
document.getElementById('load-history').addEventListener('click',async ()=>{
  const out=document.querySelector('#history .output');out.replaceChildren();
  const body=await (await fetch('/api/history')).json();
  const t=el('table');
  (body.entries||[]).forEach(e=>{const tr=el('tr');[e.createdAt,e.operation,e.status,e.errorCode||'',e.rowsOut].forEach(c=>tr.appendChild(el('td',String(c))));t.appendChild(tr);});
  out.appendChild(t);
});
document.getElementById('end-session').addEventListener('click',async ()=>{
  await fetch('/api/session',{method:'DELETE'});
  document.querySelectorAll('.output').forEach(o=>o.replaceChildren());
});
`
