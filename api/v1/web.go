package v1

import "net/http"

func Web() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html := `
<!DOCTYPE html>
<html>
<head>
    <title>Product Image Upload</title>
    <style>
        form {
            margin: 20px;
        }
        .form-group {
            margin-bottom: 10px;
        }
    </style>
</head>
<body>
    <form id="uploadForm" onsubmit="uploadImage(event)">
        <div class="form-group">
            <label for="productInput">Product ID:</label>
            <input type="number" id="productInput" min="1" required>
        </div>
        <div class="form-group">
            <label for="fileInput">Select image:</label>
            <input type="file" id="fileInput" accept="image/*" required>
        </div>
        <div class="form-group">
            <input type="submit" value="Upload Image">
        </div>
    </form>

    <script>
    function uploadImage(event) {
        event.preventDefault();

        const productId = document.getElementById('productInput').value;
        const file = document.getElementById('fileInput').files[0];

        if (!productId || !file) {
            alert('Please select a product and an image first');
            return;
        }

        fetch('/api/v1/products/' + productId + '/image/binary', {
            method: 'POST',
            body: file,
            headers: {
                'X-Api-File-Name': file.name
            }
        })
        .then(response => {
            if (response.ok) {
                alert('Image uploaded successfully');
                document.getElementById('uploadForm').reset();
            } else {
                response.json().then(body => alert('Upload failed: ' + body.message));
            }
        })
        .catch(error => {
            console.error('Error:', error);
            alert('Upload failed');
        });
    }
    </script>
</body>
</html>`

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}
}
