package views

const styles = `<style>
body{margin:0;background:#020617;color:#e2e8f0;font-family:system-ui,sans-serif}
main{max-width:1200px;margin:0 auto;padding:24px}
header{display:flex;justify-content:space-between;align-items:center;gap:16px;margin-bottom:24px}
h1{margin:0;color:#34d399}
.team,.leaders{display:flex;gap:12px;flex-wrap:wrap}
.stat,.card{background:#0f172a;border:1px solid #1e293b;border-radius:10px;padding:8px 14px;text-align:center}
.leaders{margin:24px 0}
.card{flex:1;min-width:120px}
.label{font-size:11px;color:#64748b}
.value{font-family:monospace;font-weight:bold}
.alert{padding:10px 14px;border-radius:8px;margin-bottom:16px}
.alert-error{background:#450a0a;border:1px solid #b91c1c}
.alert-info{background:#052e16;border:1px solid #15803d}
form.add{display:grid;grid-template-columns:repeat(auto-fit,minmax(90px,1fr));gap:10px;background:#0f172a;padding:16px;border-radius:12px}
form.add label{display:flex;flex-direction:column;font-size:11px;color:#64748b}
input{background:#020617;color:inherit;border:1px solid #334155;border-radius:6px;padding:6px}
button{background:#059669;color:#fff;border:0;border-radius:6px;padding:8px;cursor:pointer}
form.delete button{background:none;color:#64748b;padding:2px 6px}
table{width:100%;border-collapse:collapse;font-size:14px}
th,td{padding:8px 6px;text-align:center;border-bottom:1px solid #1e293b}
td.name{text-align:left;font-weight:600}
th a{color:#94a3b8;text-decoration:none}
th.sorted a{color:#34d399}
.loading{min-height:60vh;display:flex;align-items:center;justify-content:center}
</style>`

// Reloads on roster changes pushed over /ws, unless the user is mid-entry
const liveRefreshScript = `<script>
(function () {
  var retry = 1000;
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function () { retry = 1000; };
    ws.onmessage = function (e) {
      var msg;
      try { msg = JSON.parse(e.data); } catch (_) { return; }
      if (msg.type !== "roster_changed") return;
      var active = document.activeElement;
      if (active && active.form && active.form.classList.contains("add")) return;
      location.replace(location.pathname + location.search);
    };
    ws.onclose = function () {
      setTimeout(connect, retry);
      retry = Math.min(retry * 2, 30000);
    };
  }
  connect();
})();
</script>`
