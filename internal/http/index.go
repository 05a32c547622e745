package http

import "net/http"

// indexPage is the operator scan page. It listens on /events and flips
// between the QR view and the connected view, mirroring the /status
// contract for the initial paint.
const indexPage = `<!doctype html>
<html>
<head>
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>Dee — Scan QR</title>
  <style>
    body{font-family:Arial,Helvetica,sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh;background:#f5f6fa;margin:0}
    .card{background:#fff;padding:18px;border-radius:10px;box-shadow:0 8px 24px rgba(23,23,23,0.06);width:340px;text-align:center}
    img{width:300px;height:300px;object-fit:contain;border:1px solid #eee}
    .status{margin-top:12px;font-size:14px;color:#333}
    .hint{margin-top:8px;font-size:12px;color:#666}
    .btn{display:inline-block;margin-top:10px;padding:8px 12px;background:#2563eb;color:#fff;border-radius:6px;text-decoration:none}
  </style>
</head>
<body>
  <div class="card">
    <h3>Scan QR to connect</h3>
    <div id="qrWrap"><img id="qrImg" src="/qr.png" alt="QR" /></div>
    <div class="status" id="status">Waiting for QR...</div>
    <div class="hint">Open WhatsApp → Linked Devices → Link a device</div>
    <div id="downloadArea"></div>
  </div>
  <script>
    const statusEl=document.getElementById('status');
    const qrImg=document.getElementById('qrImg');
    const qrWrap=document.getElementById('qrWrap');
    const downloadArea=document.getElementById('downloadArea');
    function showConnected(){
      statusEl.textContent='✅ Bot connected';
      qrWrap.style.display='none';
      const link=document.createElement('a');
      link.href='/download-auth'; link.className='btn'; link.textContent='Download auth bundle';
      downloadArea.innerHTML=''; downloadArea.appendChild(link);
    }
    const ev=new EventSource('/events');
    ev.addEventListener('code',(e)=>{const p=JSON.parse(e.data||'{}'); qrImg.src='/qr.png?ts='+(p.ts||Date.now()); qrWrap.style.display=''; statusEl.textContent='Scan the QR with your phone — QR is valid now.'});
    ev.addEventListener('connected',showConnected);
    ev.addEventListener('cleared',()=>{ statusEl.textContent='QR cleared. Waiting for new QR...'; qrWrap.style.display=''; });
    ev.onerror=()=>console.warn('SSE error');
    fetch('/status').then(r=>r.json()).then(j=>{
      if(j.connected){ showConnected(); }
      else if(j.hasQR){ statusEl.textContent='Scan the QR with your phone — QR is valid now.'; qrImg.src='/qr.png?ts='+(j.qrTs||Date.now()); }
      else statusEl.textContent='Waiting for QR generation...';
    }).catch(()=>{});
  </script>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}
