package document

// DefaultDocument is shown when storage holds no document yet.
const DefaultDocument = `{
  "name": "jsonflow",
  "description": "JSON documents as node-link diagrams",
  "version": 1,
  "stable": false,
  "layout": {
    "direction": "RL",
    "engines": ["layered", "graphviz"]
  },
  "surfaces": [
    {"name": "browser", "transport": "websocket"},
    {"name": "terminal", "transport": null}
  ]
}
`
