package report

// htmlTemplate is the HTML report template.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            padding: 2rem;
        }

        .card {
            background: var(--bg-primary);
            border-radius: 12px;
            padding: 2rem;
            margin-bottom: 2rem;
            box-shadow: var(--shadow);
        }

        h1 {
            font-size: 1.75rem;
            font-weight: 700;
        }

        .subtitle {
            color: var(--text-secondary);
        }

        table {
            width: 100%;
            border-collapse: collapse;
        }

        th, td {
            padding: 0.5rem 0.75rem;
            border-bottom: 1px solid var(--border-color);
            text-align: right;
        }

        th:first-child, td:first-child {
            text-align: left;
        }

        th {
            color: var(--text-secondary);
            font-weight: 600;
        }

        .interval {
            display: block;
            color: var(--text-secondary);
            font-size: 0.8rem;
        }

        img {
            max-width: 100%;
        }
    </style>
</head>
<body>
<div class="container">
    <div class="card">
        <h1>{{.Title}}</h1>
        <p class="subtitle">Events per second by layout and {{xLabel .Mode}}</p>
    </div>
    {{if .PlotFile}}
    <div class="card">
        <img src="{{.PlotFile}}" alt="{{.Title}}">
    </div>
    {{end}}
    <div class="card">
        <table>
            <thead>
                <tr>
                    <th>Benchmark</th>
                    {{range .Matrix.Levels}}<th>{{.}}</th>{{end}}
                </tr>
            </thead>
            <tbody>
                {{range $i, $l := .Matrix.Layouts}}
                <tr>
                    <td>{{$l.Label}}</td>
                    {{range index $.Matrix.Cells $i}}
                    <td>{{formatRate .Mean}}<span class="interval">{{formatInterval .}} ({{trials .}} trials)</span></td>
                    {{end}}
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
</div>
</body>
</html>
`
